package auth

import "finboard/internal/wire"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		User         *wire.User `json:"user"`
		AccessToken  string     `json:"accessToken"`
		RefreshToken string     `json:"refreshToken"`
	} `json:"data"`
	Token string     `json:"token"`
	User  *wire.User `json:"user"`
}

func (r *loginResponse) token() string {
	return wire.FirstNonEmpty(r.Data.AccessToken, r.Token)
}

func (r *loginResponse) user() *wire.User {
	if !r.Data.User.Empty() {
		return r.Data.User
	}
	if !r.User.Empty() {
		return r.User
	}
	return nil
}

type signupRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"companyName"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
}

type messageResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}
