package httpapi

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/contacts"
)

const birthdayLayout = "2006-01-02"

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Confirmed bool    `json:"confirmed"`
	Avatar    *string `json:"avatar"`
}

// signupResponse carries the confirmation token alongside the created user:
// no mailer is wired, so the caller is responsible for delivering it.
type signupResponse struct {
	userResponse
	ConfirmToken string `json:"confirm_token"`
}

type contactPayload struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"`
	Birthday  *string `json:"birthday"`
}

type contactResponse struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"`
	Birthday  *string `json:"birthday"`
}

type avatarUploadResponse struct {
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
}

type avatarCompleteRequest struct {
	Key string `json:"key"`
}

func (p *contactPayload) toFields() (contacts.Fields, error) {
	f := contacts.Fields{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
	}
	if p.FirstName == "" || p.LastName == "" || p.Email == "" {
		return f, fmt.Errorf("%w: first_name, last_name and email are required", common.ErrorInvalidArgument)
	}
	if p.Birthday != nil {
		d, err := time.Parse(birthdayLayout, *p.Birthday)
		if err != nil {
			return f, fmt.Errorf("%w: birthday must be %s", common.ErrorInvalidArgument, birthdayLayout)
		}
		f.Birthday = &d
	}
	return f, nil
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Confirmed: u.Confirmed,
		Avatar:    u.Avatar,
	}
}

func toContactResponse(c *models.Contact) contactResponse {
	resp := contactResponse{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
	}
	if c.Birthday != nil {
		b := c.Birthday.Format(birthdayLayout)
		resp.Birthday = &b
	}
	return resp
}

func toContactResponses(list []*models.Contact) []contactResponse {
	out := make([]contactResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toContactResponse(c))
	}
	return out
}
