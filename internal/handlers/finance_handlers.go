package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"repairshop_backend/internal/models"
	"repairshop_backend/internal/services"
	"repairshop_backend/pkg/utils"
)

// FinanceHandler holds the finance service.
type FinanceHandler struct {
	financeService services.FinanceService
}

// NewFinanceHandler creates a new FinanceHandler.
func NewFinanceHandler(fs services.FinanceService) *FinanceHandler {
	return &FinanceHandler{financeService: fs}
}

// --- Categories ---

func (h *FinanceHandler) CreateCategory(c *gin.Context) {
	var category models.FinancialCategory
	if err := c.ShouldBindJSON(&category); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	if err := h.financeService.CreateCategory(&category); err != nil {
		respondServiceError(c, err, "CreateCategory: financeService.CreateCategory")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *FinanceHandler) GetCategories(c *gin.Context) {
	categories, err := h.financeService.GetCategories(c.Query("active") == "true")
	if err != nil {
		respondServiceError(c, err, "GetCategories: financeService.GetCategories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *FinanceHandler) GetCategoryByID(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	category, err := h.financeService.GetCategoryByID(categoryID)
	if err != nil {
		respondServiceError(c, err, "GetCategoryByID: financeService.GetCategoryByID")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *FinanceHandler) UpdateCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var category models.FinancialCategory
	if err := c.ShouldBindJSON(&category); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	category.ID = categoryID
	if err := h.financeService.UpdateCategory(&category); err != nil {
		respondServiceError(c, err, "UpdateCategory: financeService.UpdateCategory")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *FinanceHandler) DeleteCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.financeService.DeleteCategory(categoryID); err != nil {
		respondServiceError(c, err, "DeleteCategory: financeService.DeleteCategory")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Transactions ---

func (h *FinanceHandler) CreateTransaction(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}
	var transaction models.Transaction
	if err := c.ShouldBindJSON(&transaction); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	transaction.UserID = userID
	if err := h.financeService.CreateTransaction(&transaction); err != nil {
		respondServiceError(c, err, "CreateTransaction: financeService.CreateTransaction")
		return
	}
	c.JSON(http.StatusCreated, transaction)
}

func (h *FinanceHandler) GetTransactions(c *gin.Context) {
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	filters := models.TransactionFilters{Page: page, PageSize: pageSize}
	filters.Kind = queryString(c, "tipo")
	filters.Status = queryString(c, "status")
	categoryID, ok := queryInt64(c, "categoria_id")
	if !ok {
		return
	}
	filters.CategoryID = categoryID
	workOrderID, ok := queryInt64(c, "ordem_servico_id")
	if !ok {
		return
	}
	filters.WorkOrderID = workOrderID
	if month := c.Query("mes"); month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
				"Invalid mes format, expected YYYY-MM.", month))
			return
		}
		filters.Month = &month
	}

	transactions, totalCount, err := h.financeService.GetTransactions(filters)
	if err != nil {
		respondServiceError(c, err, "GetTransactions: financeService.GetTransactions")
		return
	}
	c.JSON(http.StatusOK, paginatedResponse{Data: transactions, TotalCount: totalCount, Page: page, PageSize: pageSize})
}

func (h *FinanceHandler) GetTransactionByID(c *gin.Context) {
	transactionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	transaction, err := h.financeService.GetTransactionByID(transactionID)
	if err != nil {
		respondServiceError(c, err, "GetTransactionByID: financeService.GetTransactionByID")
		return
	}
	c.JSON(http.StatusOK, transaction)
}

func (h *FinanceHandler) UpdateTransaction(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}
	transactionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var transaction models.Transaction
	if err := c.ShouldBindJSON(&transaction); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	transaction.ID = transactionID
	transaction.UserID = userID
	if err := h.financeService.UpdateTransaction(&transaction); err != nil {
		respondServiceError(c, err, "UpdateTransaction: financeService.UpdateTransaction")
		return
	}
	c.JSON(http.StatusOK, transaction)
}

func (h *FinanceHandler) PayTransaction(c *gin.Context) {
	transactionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	transaction, err := h.financeService.MarkTransactionPaid(transactionID, req)
	if err != nil {
		respondServiceError(c, err, "PayTransaction: financeService.MarkTransactionPaid")
		return
	}
	c.JSON(http.StatusOK, transaction)
}

func (h *FinanceHandler) CancelTransaction(c *gin.Context) {
	transactionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.financeService.CancelTransaction(transactionID); err != nil {
		respondServiceError(c, err, "CancelTransaction: financeService.CancelTransaction")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Summary ---

func (h *FinanceHandler) GetSummary(c *gin.Context) {
	month := time.Now()
	if raw := c.Query("mes"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
				"Invalid mes format, expected YYYY-MM.", raw))
			return
		}
		month = parsed
	}
	summary, err := h.financeService.GetSummary(month)
	if err != nil {
		respondServiceError(c, err, "GetSummary: financeService.GetSummary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// --- Accounts ---

func (h *FinanceHandler) CreateAccount(c *gin.Context) {
	var account models.FinancialAccount
	if err := c.ShouldBindJSON(&account); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	if err := h.financeService.CreateAccount(&account); err != nil {
		respondServiceError(c, err, "CreateAccount: financeService.CreateAccount")
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *FinanceHandler) GetAccounts(c *gin.Context) {
	accounts, err := h.financeService.GetAccounts()
	if err != nil {
		respondServiceError(c, err, "GetAccounts: financeService.GetAccounts")
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (h *FinanceHandler) GetAccountByID(c *gin.Context) {
	accountID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	account, err := h.financeService.GetAccountByID(accountID)
	if err != nil {
		respondServiceError(c, err, "GetAccountByID: financeService.GetAccountByID")
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *FinanceHandler) UpdateAccount(c *gin.Context) {
	accountID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var account models.FinancialAccount
	if err := c.ShouldBindJSON(&account); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	account.ID = accountID
	if err := h.financeService.UpdateAccount(&account); err != nil {
		respondServiceError(c, err, "UpdateAccount: financeService.UpdateAccount")
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *FinanceHandler) DeleteAccount(c *gin.Context) {
	accountID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.financeService.DeleteAccount(accountID); err != nil {
		respondServiceError(c, err, "DeleteAccount: financeService.DeleteAccount")
		return
	}
	c.Status(http.StatusNoContent)
}
