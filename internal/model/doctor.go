package model

type Doctor struct {
	Base
	Name      string `json:"name" db:"name"`
	Email     string `json:"email" db:"email"`
	Phone     string `json:"phone" db:"phone"`
	CRM       string `json:"crm" db:"crm"`
	Specialty string `json:"specialty" db:"specialty"`
	Active    bool   `json:"active" db:"active"`
}

type CreateDoctorRequest struct {
	Name      string `json:"name" binding:"required,max=200"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone" binding:"max=30"`
	CRM       string `json:"crm" binding:"required,max=20"`
	Specialty string `json:"specialty" binding:"required,max=100"`
}

type UpdateDoctorRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=200"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Phone     *string `json:"phone" binding:"omitempty,max=30"`
	CRM       *string `json:"crm" binding:"omitempty,max=20"`
	Specialty *string `json:"specialty" binding:"omitempty,max=100"`
}
