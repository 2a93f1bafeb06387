package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop_backend/internal/models"
)

func TestRenderOrderMessage(t *testing.T) {
	company := CompanyConfig{Name: "TecnoFix Eletronicos", Phone: "(11) 99999-0000"}
	order := &models.WorkOrder{
		OrderNumber:  "OS-000042",
		Brand:        "Samsung",
		Model:        "UN50AU7700",
		TotalValue:   decimal.NewFromFloat(480.50),
		WarrantyDays: 90,
		Customer:     &models.Customer{Name: "Maria Aparecida Souza"},
	}

	cases := []struct {
		event    string
		contains []string
	}{
		{EventEntry, []string{"Ola Maria!", "Samsung UN50AU7700", "TecnoFix Eletronicos", "OS-000042"}},
		{EventEvaluation, []string{"orcamento", "OS-000042", "R$ 480.50", "aprovacao"}},
		{EventApproval, []string{"aprovado", "Samsung UN50AU7700"}},
		{EventCompletion, []string{"pronto para retirada", "TecnoFix Eletronicos"}},
		{EventDelivery, []string{"Obrigado, Maria!", "garantia de 90 dias"}},
	}
	for _, tc := range cases {
		t.Run(tc.event, func(t *testing.T) {
			message := RenderOrderMessage(tc.event, order, company)
			require.NotEmpty(t, message)
			for _, fragment := range tc.contains {
				assert.Contains(t, message, fragment)
			}
			assert.Contains(t, message, "Duvidas: (11) 99999-0000.")
		})
	}

	t.Run("unknown event renders empty", func(t *testing.T) {
		assert.Empty(t, RenderOrderMessage("promocao", order, company))
	})

	t.Run("missing customer renders without name", func(t *testing.T) {
		anonymous := &models.WorkOrder{OrderNumber: "OS-000001", Brand: "LG", Model: "29UM69G"}
		message := RenderOrderMessage(EventEntry, anonymous, company)
		assert.Contains(t, message, "OS-000001")
	})
}
