package model

import "time"

type Patient struct {
	Base
	Name           string     `json:"name" db:"name"`
	Email          string     `json:"email" db:"email"`
	Phone          string     `json:"phone" db:"phone"`
	CPF            string     `json:"cpf" db:"cpf"`
	BirthDate      *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	Address        string     `json:"address" db:"address"`
	MedicalHistory string     `json:"medical_history" db:"medical_history"`
	Active         bool       `json:"active" db:"active"`
}

type CreatePatientRequest struct {
	Name           string     `json:"name" binding:"required,max=200"`
	Email          string     `json:"email" binding:"omitempty,email"`
	Phone          string     `json:"phone" binding:"max=30"`
	CPF            string     `json:"cpf" binding:"required,min=11,max=14"`
	BirthDate      *Timestamp `json:"birth_date"`
	Address        string     `json:"address" binding:"max=300"`
	MedicalHistory string     `json:"medical_history"`
}

type UpdatePatientRequest struct {
	Name           *string    `json:"name" binding:"omitempty,max=200"`
	Email          *string    `json:"email" binding:"omitempty,email"`
	Phone          *string    `json:"phone" binding:"omitempty,max=30"`
	CPF            *string    `json:"cpf" binding:"omitempty,min=11,max=14"`
	BirthDate      *Timestamp `json:"birth_date"`
	Address        *string    `json:"address" binding:"omitempty,max=300"`
	MedicalHistory *string    `json:"medical_history"`
}
