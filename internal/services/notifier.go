package services

import (
	"fmt"
	"strings"

	"repairshop_backend/internal/models"
	"repairshop_backend/pkg/utils"
)

// Order events that produce customer notifications. Each fires at most
// once per order, after the surrounding transaction commits.
const (
	EventEntry      = "entrada"
	EventEvaluation = "orcamento"
	EventApproval   = "aprovacao"
	EventCompletion = "conclusao"
	EventDelivery   = "entrega"
)

// CompanyConfig carries the shop identity injected into notification texts.
type CompanyConfig struct {
	Name    string
	Phone   string
	Email   string
	Address string
	CNPJ    string
	SiteURL string
}

// Notifier delivers customer-facing messages about order events. Delivery
// failures never affect the business operation that triggered them.
type Notifier interface {
	NotifyOrderEvent(event string, order *models.WorkOrder, company CompanyConfig)
}

type logNotifier struct{}

// NewLogNotifier returns a Notifier that writes the rendered message to the
// application log. It stands in for SMS/WhatsApp delivery.
func NewLogNotifier() Notifier {
	return &logNotifier{}
}

func (n *logNotifier) NotifyOrderEvent(event string, order *models.WorkOrder, company CompanyConfig) {
	message := RenderOrderMessage(event, order, company)
	if message == "" {
		return
	}
	phone := ""
	if order.Customer != nil {
		phone = order.Customer.PrimaryPhone
	}
	utils.LogInfo(fmt.Sprintf("notification [%s] order %s to %s: %s", event, order.OrderNumber, phone, message))
}

// RenderOrderMessage builds the customer message for an order event.
// Unknown events render empty.
func RenderOrderMessage(event string, order *models.WorkOrder, company CompanyConfig) string {
	customerName := ""
	if order.Customer != nil {
		customerName = firstName(order.Customer.Name)
	}

	var b strings.Builder
	switch event {
	case EventEntry:
		fmt.Fprintf(&b, "Ola %s! Recebemos seu equipamento %s %s na %s. Sua ordem de servico e %s.",
			customerName, order.Brand, order.Model, company.Name, order.OrderNumber)
	case EventEvaluation:
		fmt.Fprintf(&b, "Ola %s! O orcamento da OS %s ficou pronto: R$ %s. Aguardamos sua aprovacao.",
			customerName, order.OrderNumber, order.TotalValue.StringFixed(2))
	case EventApproval:
		fmt.Fprintf(&b, "Ola %s! Orcamento da OS %s aprovado. Iniciamos o reparo do seu %s %s.",
			customerName, order.OrderNumber, order.Brand, order.Model)
	case EventCompletion:
		fmt.Fprintf(&b, "Ola %s! Seu equipamento da OS %s esta pronto para retirada na %s.",
			customerName, order.OrderNumber, company.Name)
	case EventDelivery:
		fmt.Fprintf(&b, "Obrigado, %s! OS %s entregue com garantia de %d dias. %s agradece a preferencia.",
			customerName, order.OrderNumber, order.WarrantyDays, company.Name)
	default:
		return ""
	}
	if company.Phone != "" {
		fmt.Fprintf(&b, " Duvidas: %s.", company.Phone)
	}
	return b.String()
}

func firstName(full string) string {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return full
	}
	return parts[0]
}
