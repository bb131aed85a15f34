package edu

import (
	"net/http"

	"github.com/goliatone/go-router"
)

// UserControllerRoutes holds the paths served by UserController
type UserControllerRoutes struct {
	Register  string
	VerifyOTP string
	ResendOTP string
	Login     string
}

// UserController exposes registration, OTP verification and login
type UserController struct {
	Logger       Logger
	Routes       *UserControllerRoutes
	ErrorHandler router.ErrorHandler
	register     *RegisterUserHandler
	verify       *VerifyOTPHandler
	resend       *ResendOTPHandler
	auth         Authenticator
}

// UserControllerOption customizes the controller
type UserControllerOption func(*UserController)

// WithUserControllerRoutes overrides the default paths.
func WithUserControllerRoutes(routes *UserControllerRoutes) UserControllerOption {
	return func(uc *UserController) {
		if routes != nil {
			uc.Routes = routes
		}
	}
}

// WithUserControllerLogger sets the logger.
func WithUserControllerLogger(logger Logger) UserControllerOption {
	return func(uc *UserController) {
		if logger != nil {
			uc.Logger = logger
		}
	}
}

// WithUserControllerErrorHandler sets the renderer for failed requests.
func WithUserControllerErrorHandler(handler router.ErrorHandler) UserControllerOption {
	return func(uc *UserController) {
		if handler != nil {
			uc.ErrorHandler = handler
		}
	}
}

// WithUserControllerResendOTP enables the resend route.
func WithUserControllerResendOTP(handler *ResendOTPHandler) UserControllerOption {
	return func(uc *UserController) {
		uc.resend = handler
	}
}

// NewUserController wires the auth flow handlers into HTTP routes.
func NewUserController(register *RegisterUserHandler, verify *VerifyOTPHandler, auth Authenticator, opts ...UserControllerOption) *UserController {
	uc := &UserController{
		Logger: defLogger{name: "edu.users"},
		Routes: &UserControllerRoutes{
			Register:  "/register",
			VerifyOTP: "/verify-otp",
			ResendOTP: "/resend-otp",
			Login:     "/login",
		},
		register: register,
		verify:   verify,
		auth:     auth,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(uc)
		}
	}
	if uc.ErrorHandler == nil {
		uc.ErrorHandler = NewErrorHandler(uc.Logger)
	}
	return uc
}

// RegisterRoutes mounts the controller on r.
func (uc *UserController) RegisterRoutes(r RouteRegistrar) {
	rescue := RenderErrors(uc.ErrorHandler)

	r.Post(uc.Routes.Register, withMiddleware(uc.RegisterPost, rescue))
	r.Post(uc.Routes.VerifyOTP, withMiddleware(uc.VerifyOTPPost, rescue))
	if uc.resend != nil {
		r.Post(uc.Routes.ResendOTP, withMiddleware(uc.ResendOTPPost, rescue))
	}
	r.Post(uc.Routes.Login, withMiddleware(uc.LoginPost, rescue))
}

// MessageResponse is the body of successful commands without a payload
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse is the body of a successful login
type TokenResponse struct {
	Token string `json:"token"`
}

func (uc *UserController) RegisterPost(ctx router.Context) error {
	payload := RegisterUserMessage{}
	if err := parseBody(ctx, &payload); err != nil {
		return err
	}

	user, err := uc.register.Register(ctx.Context(), payload)
	if err != nil {
		return err
	}

	uc.Logger.Info("registered account %s with role %s", user.ID, user.Role)

	return ctx.JSON(http.StatusCreated, MessageResponse{
		Message: "Registered successfully. We sent an OTP-CODE to your email, please activate your account",
	})
}

func (uc *UserController) VerifyOTPPost(ctx router.Context) error {
	payload := VerifyOTPMessage{}
	if err := parseBody(ctx, &payload); err != nil {
		return err
	}

	if _, err := uc.verify.Verify(ctx.Context(), payload); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, MessageResponse{
		Message: "Your account verified successfully",
	})
}

func (uc *UserController) ResendOTPPost(ctx router.Context) error {
	payload := ResendOTPMessage{}
	if err := parseBody(ctx, &payload); err != nil {
		return err
	}

	if err := uc.resend.Execute(ctx.Context(), payload); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, MessageResponse{
		Message: "We sent a new OTP-CODE to your email",
	})
}

func (uc *UserController) LoginPost(ctx router.Context) error {
	payload := LoginMessage{}
	if err := parseBody(ctx, &payload); err != nil {
		return NewLoginRejection(err)
	}

	token, err := uc.auth.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}
