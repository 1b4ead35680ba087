package dto

// UpdateProfileRequest - скалярные поля профиля (multipart/form или JSON).
// nil = поле не передано.
type UpdateProfileRequest struct {
	FirstName   *string `form:"first_name" json:"first_name" validate:"omitempty,max=150"`
	LastName    *string `form:"last_name" json:"last_name" validate:"omitempty,max=150"`
	Username    *string `form:"username" json:"username" validate:"omitempty,min=3,max=150,username"`
	Bio         *string `form:"bio" json:"bio" validate:"omitempty,max=2000"`
	Country     *string `form:"country" json:"country" validate:"omitempty,max=100"`
	City        *string `form:"city" json:"city" validate:"omitempty,max=100"`
	PostalCode  *string `form:"postal_code" json:"postal_code" validate:"omitempty,max=20"`
	Street      *string `form:"street" json:"street" validate:"omitempty,max=255"`
	HouseNumber *string `form:"house_number" json:"house_number" validate:"omitempty,max=20"`
	PhoneNumber *string `form:"phone_number" json:"phone_number" validate:"omitempty,phone"`
}

// Fields возвращает только переданные поля (колонка -> значение)
func (r *UpdateProfileRequest) Fields() map[string]any {
	fields := map[string]any{}
	putString(fields, "first_name", r.FirstName)
	putString(fields, "last_name", r.LastName)
	putString(fields, "username", r.Username)
	putString(fields, "bio", r.Bio)
	putString(fields, "country", r.Country)
	putString(fields, "city", r.City)
	putString(fields, "postal_code", r.PostalCode)
	putString(fields, "street", r.Street)
	putString(fields, "house_number", r.HouseNumber)
	putString(fields, "phone_number", r.PhoneNumber)
	return fields
}

func putString(fields map[string]any, column string, v *string) {
	if v != nil {
		fields[column] = *v
	}
}
