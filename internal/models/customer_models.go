package models

import "time"

// Customer is a repair shop client. Deletion is rejected while work orders
// reference the customer.
type Customer struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"nome" db:"name" binding:"required"`
	Document       string    `json:"cpf_cnpj" db:"document" binding:"required"`
	PrimaryPhone   string    `json:"telefone_principal" db:"primary_phone" binding:"required"`
	SecondaryPhone *string   `json:"telefone_secundario,omitempty" db:"secondary_phone"`
	Email          *string   `json:"email,omitempty" db:"email"`
	PostalCode     *string   `json:"cep,omitempty" db:"postal_code"`
	Street         *string   `json:"logradouro,omitempty" db:"street"`
	Number         *string   `json:"numero,omitempty" db:"number"`
	Complement     *string   `json:"complemento,omitempty" db:"complement"`
	District       *string   `json:"bairro,omitempty" db:"district"`
	City           *string   `json:"cidade,omitempty" db:"city"`
	State          *string   `json:"estado,omitempty" db:"state"`
	Notes          *string   `json:"observacoes,omitempty" db:"notes"`
	Active         bool      `json:"ativo" db:"active"`
	CreatedAt      time.Time `json:"data_cadastro" db:"created_at"`
}

// CustomerFilters narrows customer listings.
type CustomerFilters struct {
	Search     *string
	ActiveOnly bool
	Page       int
	PageSize   int
}
