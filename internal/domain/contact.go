package domain

import (
	"net/mail"
	"strings"
	"time"
)

type Contact struct {
	ID              int64
	Name            string
	Email           string
	Phone           string
	Company         string
	Position        string
	Tags            []string
	CreatedAt       time.Time
	LastContactedAt *time.Time
}

// ContactPatch is a partial contact update. Nil fields are left unchanged.
type ContactPatch struct {
	Name            *string
	Email           *string
	Phone           *string
	Company         *string
	Position        *string
	Tags            *[]string
	LastContactedAt *time.Time
}

// Validate returns a normalized copy of the contact or a *ValidationError.
func (c Contact) Validate() (Contact, error) {
	out := c
	out.Name = strings.TrimSpace(c.Name)
	out.Email = strings.ToLower(strings.TrimSpace(c.Email))
	out.Phone = strings.TrimSpace(c.Phone)
	out.Company = strings.TrimSpace(c.Company)
	out.Position = strings.TrimSpace(c.Position)
	out.Tags = normalizeTags(c.Tags)

	v := validationErrors{entity: "contact"}
	if out.Name == "" {
		v.add("name", "name is required")
	}
	if out.Email == "" {
		v.add("email", "email is required")
	} else if !validEmail(out.Email) {
		v.add("email", "%q is not a valid email address", out.Email)
	}
	if err := v.err(); err != nil {
		return Contact{}, err
	}
	return out, nil
}

// WithPatch returns a copy with the patch applied. The result is not validated.
func (c Contact) WithPatch(p ContactPatch) Contact {
	out := c
	out.Name = patched(c.Name, p.Name)
	out.Email = patched(c.Email, p.Email)
	out.Phone = patched(c.Phone, p.Phone)
	out.Company = patched(c.Company, p.Company)
	out.Position = patched(c.Position, p.Position)
	if p.Tags != nil {
		out.Tags = append([]string(nil), (*p.Tags)...)
	} else if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	if p.LastContactedAt != nil {
		t := *p.LastContactedAt
		out.LastContactedAt = &t
	}
	return out
}

// Matches reports whether the query occurs in the name, email, company or
// phone, case-insensitively. An empty query matches everything.
func (c Contact) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{c.Name, c.Email, c.Company, c.Phone} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// ParseAddress accepts "Name <a@b>"; only bare addresses are stored.
	return addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}
