package config

type CookieSameSite string

const (
	CookieSameSiteNone   CookieSameSite = "None"
	CookieSameSiteLax    CookieSameSite = "Lax"
	CookieSameSiteStrict CookieSameSite = "Strict"
)

// CookieTemplate describes a cookie owned by the gateway. MaxAge is the
// lifetime used when the cookie is set; deleting always uses Max-Age=0.
type CookieTemplate struct {
	Name     string         `yaml:"name" validate:"required"`
	MaxAge   int            `yaml:"maxAge" validate:"gte=0"`
	Path     string         `yaml:"path"`
	Domain   string         `yaml:"domain"`
	Secure   bool           `yaml:"secure"`
	HTTPOnly bool           `yaml:"httpOnly"`
	SameSite CookieSameSite `yaml:"sameSite" validate:"omitempty,oneof=None Lax Strict"`
}
