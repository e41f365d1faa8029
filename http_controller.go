package identity

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

type AuthControllerRoutes struct {
	Exchange string
	Profile  string
	Me       string
	Health   string
	Ping     string
}

// AuthController exposes the token exchange and onboarding endpoints.
// Exchange, Health, and Ping belong on the public allow-list; Profile
// and Me sit behind the bearer token middleware.
type AuthController struct {
	Debug      bool
	Logger     Logger
	Repo       RepositoryManager
	Exchanger  TokenExchanger
	Routes     *AuthControllerRoutes
	ContextKey string
}

type AuthControllerOption func(*AuthController) *AuthController

// WithControllerLogger overrides the default logger
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerExchanger sets the token exchanger
func WithControllerExchanger(exchanger TokenExchanger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Exchanger = exchanger
		return c
	}
}

// WithControllerRepo sets the repository manager
func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

// WithControllerRoutes overrides the default route paths
func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

// WithControllerDebug enables payload dumps on the exchange flow
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Exchange: "/auth/exchange",
			Profile:  "/auth/profile",
			Me:       "/auth/me",
			Health:   "/health",
			Ping:     "/ping",
		},
		ContextKey: "user",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Exchanger == nil {
		panic("Missing TokenExchanger in auth controller...")
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	return c
}

// RegisterAuthRoutes registers the controller routes
func RegisterAuthRoutes(app RouteRegistrar, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Exchange, controller.ExchangePost)
	app.Post(controller.Routes.Profile, controller.ProfilePost)
	app.Get(controller.Routes.Me, controller.MeGet)
	app.Get(controller.Routes.Health, controller.HealthGet)
	app.Get(controller.Routes.Ping, controller.PingGet)

	return controller
}

// ExchangeRequest is the token exchange payload
type ExchangeRequest struct {
	ProviderToken string `json:"providerToken" form:"providerToken"`
}

// Validate will run validation rules
func (r ExchangeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.ProviderToken,
			validation.Required,
		),
	)
}

// ExchangePost swaps a verified provider token for a first party token
func (a *AuthController) ExchangePost(ctx router.Context) error {
	payload := new(ExchangeRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("exchange parse payload: ", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	result, err := a.Exchanger.Exchange(ctx.Context(), payload.ProviderToken)
	if err != nil {
		return a.renderError(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("exchange response: %s", print.MaybePrettyJSON(result.Identity))
	}

	return ctx.JSON(router.StatusOK, result)
}

// ProfileRequest is the onboarding payload
type ProfileRequest struct {
	Phone                string `json:"phone" form:"phone"`
	DateOfBirth          string `json:"dateOfBirth" form:"dateOfBirth"`
	DrivingLicenseNumber string `json:"drivingLicenseNumber" form:"drivingLicenseNumber"`
	PassportNumber       string `json:"passportNumber" form:"passportNumber"`
	PreferredLanguage    string `json:"preferredLanguage" form:"preferredLanguage"`
	CountryOfResidence   string `json:"countryOfResidence" form:"countryOfResidence"`
	PhoneRegion          string `json:"phoneRegion" form:"phoneRegion"`
}

// Validate will run validation rules
func (r ProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Phone, validation.Required),
		validation.Field(&r.DateOfBirth, validation.Date(DateOfBirthLayout)),
		validation.Field(&r.PreferredLanguage, validation.Length(2, 10)),
		validation.Field(&r.CountryOfResidence, is.CountryCode2),
	)
}

// ProfilePost completes onboarding for the authenticated user
func (a *AuthController) ProfilePost(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	payload := new(ProfileRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("profile parse payload: ", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	var profile *Profile

	msg := AttachProfileMessage{
		ExternalID:           claims.Subject(),
		Phone:                payload.Phone,
		DateOfBirth:          payload.DateOfBirth,
		DrivingLicenseNumber: payload.DrivingLicenseNumber,
		PassportNumber:       payload.PassportNumber,
		PreferredLanguage:    payload.PreferredLanguage,
		CountryOfResidence:   payload.CountryOfResidence,
		PhoneRegion:          payload.PhoneRegion,
		OnResponse: func(p *Profile) {
			profile = p
		},
	}

	attach := AttachProfileHandler{Repo: a.Repo}
	if err := attach.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("profile attach: ", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, profile)
}

// MeGet returns the authenticated user's sanitized identity
func (a *AuthController) MeGet(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"externalId": claims.Subject(),
		"email":      claims.Email(),
		"givenName":  claims.GivenName(),
		"familyName": claims.FamilyName(),
		"avatarUrl":  claims.Picture(),
		"role":       claims.Role(),
	})
}

// HealthGet is an unauthenticated liveness probe
func (a *AuthController) HealthGet(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "UP",
	})
}

// PingGet is an unauthenticated liveness probe
func (a *AuthController) PingGet(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "pong",
	})
}

// renderError maps categorized errors onto HTTP statuses. First party
// token failures are reported as a uniform 401 so callers cannot probe
// token validity.
func (a *AuthController) renderError(ctx router.Context, err error) error {
	status := router.StatusInternalServerError
	message := "internal error"

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		switch rich.Category {
		case goerrors.CategoryAuth:
			status = router.StatusUnauthorized
			message = "authentication failed"
		case goerrors.CategoryValidation, goerrors.CategoryBadInput:
			status = router.StatusBadRequest
			message = rich.Message
		case goerrors.CategoryConflict:
			status = router.StatusConflict
			message = rich.Message
		case goerrors.CategoryNotFound:
			status = router.StatusNotFound
			message = rich.Message
		case goerrors.CategoryOperation:
			status = router.StatusServiceUnavailable
			message = "service unavailable"
		}
	}

	return ctx.JSON(status, map[string]string{
		"error": message,
	})
}
