package customers

import "strings"

// Customer is a buyer registered in the backend. DocNumber holds a DNI or RUC.
type Customer struct {
	ID        int64  `json:"id" validate:"gt=0"`
	Name      string `json:"name" validate:"required"`
	DocNumber string `json:"docNumber"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}

// Payload is the body of create and update requests.
type Payload struct {
	Name      string `json:"name" validate:"required,max=200"`
	DocNumber string `json:"docNumber" validate:"required,min=8,max=15"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Address   string `json:"address,omitempty" validate:"omitempty,max=300"`
}

// Normalize trims every field.
func (p Payload) Normalize() Payload {
	p.Name = strings.TrimSpace(p.Name)
	p.DocNumber = strings.TrimSpace(p.DocNumber)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Address = strings.TrimSpace(p.Address)
	return p
}

// Page is one page of the customer directory.
type Page struct {
	Content       []Customer `json:"content" validate:"dive"`
	TotalPages    int        `json:"totalPages"`
	TotalElements int64      `json:"totalElements"`
	Last          bool       `json:"last"`
}

// External is the registry record returned by a document number lookup.
type External struct {
	DocNumber string `json:"docNumber,omitempty"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Active reports whether the registry lists the taxpayer as active. An empty
// status is treated as active.
func (e External) Active() bool {
	return e.Status == "" || strings.EqualFold(e.Status, "ACTIVO")
}
