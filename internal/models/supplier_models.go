package models

import "time"

// Supplier is a part vendor. Parts, movements and transactions keep
// nullable links to suppliers; deleting a supplier nullifies those links.
type Supplier struct {
	ID            int64     `json:"id" db:"id"`
	LegalName     string    `json:"razao_social" db:"legal_name" binding:"required"`
	TradeName     *string   `json:"nome_fantasia,omitempty" db:"trade_name"`
	CNPJ          string    `json:"cnpj" db:"cnpj" binding:"required"`
	Phone         string    `json:"telefone" db:"phone" binding:"required"`
	Email         *string   `json:"email,omitempty" db:"email"`
	ContactPerson *string   `json:"contato_responsavel,omitempty" db:"contact_person"`
	PostalCode    *string   `json:"cep,omitempty" db:"postal_code"`
	Street        *string   `json:"logradouro,omitempty" db:"street"`
	Number        *string   `json:"numero,omitempty" db:"number"`
	Complement    *string   `json:"complemento,omitempty" db:"complement"`
	District      *string   `json:"bairro,omitempty" db:"district"`
	City          *string   `json:"cidade,omitempty" db:"city"`
	State         *string   `json:"estado,omitempty" db:"state"`
	PaymentTerms  *string   `json:"condicoes_pagamento,omitempty" db:"payment_terms"`
	Notes         *string   `json:"observacoes,omitempty" db:"notes"`
	Active        bool      `json:"ativo" db:"active"`
	CreatedAt     time.Time `json:"data_cadastro" db:"created_at"`
}

// SupplierFilters narrows supplier listings.
type SupplierFilters struct {
	Search     *string
	ActiveOnly bool
	Page       int
	PageSize   int
}
