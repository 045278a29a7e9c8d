package http

import (
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/planitee/identity/internal/identity/domain"
	"github.com/planitee/identity/pkg/cryptox"
	"github.com/planitee/identity/pkg/httpx"
)

// decodeJSON parses a JSON request body into dst. A false return means the
// error response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return false
	}
	return true
}

// writeValidationError converts an ozzo validation error into a 400 response.
func writeValidationError(w http.ResponseWriter, err error) {
	httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
		Error:            "invalid_request",
		ErrorDescription: err.Error(),
	})
}

type RegisterStartRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

func (r RegisterStartRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Nickname, validation.Required, validation.Length(2, 50)),
	)
}

type RegisterStartResponse struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// SendCodeRequest is shared by the registration and password-reset issuance
// endpoints.
type SendCodeRequest struct {
	Email string `json:"email"`
}

func (r SendCodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  int    `json:"code"`
}

func (r VerifyCodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Code, validation.Required,
			validation.Min(cryptox.VerificationCodeMin),
			validation.Max(cryptox.VerificationCodeMax)),
	)
}

type VerifyCodeResponse struct {
	Verified bool `json:"verified"`
}

type ResetVerifyRequest struct {
	Email       string `json:"email"`
	Code        int    `json:"code"`
	NewPassword string `json:"new_password"`
}

func (r ResetVerifyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Code, validation.Required,
			validation.Min(cryptox.VerificationCodeMin),
			validation.Max(cryptox.VerificationCodeMax)),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

type FinalizeRequest struct {
	Email         string   `json:"email"`
	Personality   string   `json:"personality,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	Hobbies       []string `json:"hobbies,omitempty"`
	FavoriteFoods []string `json:"favorite_foods,omitempty"`
	ProfileImage  string   `json:"profile_image,omitempty"`
}

func (r FinalizeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Gender, validation.In("", "male", "female", "other")),
		validation.Field(&r.Personality, validation.Length(0, 100)),
		validation.Field(&r.ProfileImage, validation.Length(0, 500)),
	)
}

// Profile converts the optional fields into the domain type.
func (r FinalizeRequest) Profile() domain.Profile {
	return domain.Profile{
		Personality:   r.Personality,
		Gender:        domain.ParseGender(r.Gender),
		Hobbies:       r.Hobbies,
		FavoriteFoods: r.FavoriteFoods,
		ProfileImage:  r.ProfileImage,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// UserResponse is the profile shape returned by finalize, login, and the
// profile endpoint.
type UserResponse struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	Nickname      string   `json:"nickname"`
	Personality   string   `json:"personality,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	Hobbies       []string `json:"hobbies,omitempty"`
	FavoriteFoods []string `json:"favorite_foods,omitempty"`
	ProfileImage  string   `json:"profile_image,omitempty"`
}

func newUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Nickname:      u.Nickname,
		Personality:   u.Personality,
		Gender:        string(u.Gender),
		Hobbies:       u.Hobbies,
		FavoriteFoods: u.FavoriteFoods,
		ProfileImage:  u.ProfileImage,
	}
}

type HealthChecks struct {
	Database string `json:"database,omitempty"`
	Signer   string `json:"signer,omitempty"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
