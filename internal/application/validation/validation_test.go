package validation

import (
	"testing"

	"github.com/taskmaster/tasksync/internal/domain/entities"
)

type signup struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,password"`
	Date     string `json:"date" validate:"omitempty,calendar_date"`
}

func TestStruct(t *testing.T) {
	v := New()
	valid := signup{Name: "Olivia", Email: "olivia@example.com", Password: "Secret@123", Date: "2025-03-10"}

	tests := []struct {
		name   string
		mutate func(*signup)
		field  string
	}{
		{"valid", func(*signup) {}, ""},
		{"short name", func(s *signup) { s.Name = "O" }, "name"},
		{"bad email", func(s *signup) { s.Email = "olivia" }, "email"},
		{"no special character", func(s *signup) { s.Password = "Secret1234" }, "password"},
		{"special character outside the allowed set", func(s *signup) { s.Password = "Secret#123" }, "password"},
		{"no uppercase", func(s *signup) { s.Password = "secret@123" }, "password"},
		{"not a calendar day", func(s *signup) { s.Date = "2025-02-30" }, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := v.Struct(in)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Struct() = %v", err)
				}
				return
			}
			de, ok := entities.AsDomainError(err)
			if !ok || de.Kind != entities.KindValidation {
				t.Fatalf("Struct() = %v, want validation error", err)
			}
			if len(de.Fields) != 1 || de.Fields[0].Field != tt.field {
				t.Errorf("fields = %+v, want one for %s", de.Fields, tt.field)
			}
		})
	}
}
