package accounts

import "time"

type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User is the buyer profile; the address is the default shipping address.
type User struct {
	Account
	Phone          string `json:"phone"`
	AddressFlatno  string `json:"addressFlatno"`
	AddressPincode string `json:"addressPincode"`
	AddressCity    string `json:"addressCity"`
	AddressState   string `json:"addressState"`
}

type ProfileUpdate struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Flatno  string `json:"flatno"`
	Pincode string `json:"pincode"`
	City    string `json:"city"`
	State   string `json:"state"`
}

func (p ProfileUpdate) fields() map[string]any {
	m := map[string]any{}
	set := func(col, v string) {
		if v != "" {
			m[col] = v
		}
	}
	set("email", p.Email)
	set("phone", p.Phone)
	set("address_flatno", p.Flatno)
	set("address_pincode", p.Pincode)
	set("address_city", p.City)
	set("address_state", p.State)
	return m
}

type AccountUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary is what signup/login hand back next to the token.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AuthResult struct {
	Token string  `json:"token"`
	Role  string  `json:"role"`
	User  Summary `json:"user"`
}
