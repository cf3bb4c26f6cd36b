package validation

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	errpkg "github.com/veranemoloko/tg-downloader/internal/errors"
)

var (
	validate *validator.Validate

	// urlShape accepts http(s) links with a host and an optional whitespace-free path.
	urlShape = regexp.MustCompile(`^(https?://)[\w.-]+(?::\d+)?(?:/[^\s]*)?$`)

	forbiddenHosts = []string{
		"localhost",
		"127.0.0.1",
		"::1",
		"0.0.0.0",
		"169.254.169.254",
	}
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("media_url", validateMediaURL)
	_ = validate.RegisterValidation("public_host", validatePublicHost)
}

// Policy decides which links the bot accepts.
type Policy struct {
	// AllowPrivateHosts lets through links to loopback, private and
	// link-local addresses, e.g. a media server on the LAN.
	AllowPrivateHosts bool
}

// Validate returns ErrInvalidURL wrapped with the reason when s is not a
// link the bot should hand to the extractor.
func (p Policy) Validate(s string) error {
	tag := "required,media_url,public_host"
	if p.AllowPrivateHosts {
		tag = "required,media_url"
	}
	if err := validate.Var(strings.TrimSpace(s), tag); err != nil {
		return fmt.Errorf("%w %q: %v", errpkg.ErrInvalidURL, s, err)
	}
	return nil
}

// Accepts reports whether s passes the policy.
func (p Policy) Accepts(s string) bool {
	return p.Validate(s) == nil
}

// ValidateURL checks s against the default policy, which rejects private hosts.
func ValidateURL(s string) error {
	return Policy{}.Validate(s)
}

// IsURL reports whether s looks like a downloadable link.
func IsURL(s string) bool {
	return ValidateURL(s) == nil
}

func validateMediaURL(fl validator.FieldLevel) bool {
	urlStr := fl.Field().String()

	if !urlShape.MatchString(urlStr) {
		return false
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	return u.Host != ""
}

func validatePublicHost(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	host := u.Hostname()

	for _, forbidden := range forbiddenHosts {
		if strings.EqualFold(host, forbidden) {
			return false
		}
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			return false
		}
	}

	return true
}
