package app

import (
	"fmt"

	authHTTP "github.com/allisson/cedms/internal/auth/http"
	authService "github.com/allisson/cedms/internal/auth/service"
	authUseCase "github.com/allisson/cedms/internal/auth/usecase"
	cryptoDomain "github.com/allisson/cedms/internal/crypto/domain"
	cryptoService "github.com/allisson/cedms/internal/crypto/service"
	"github.com/allisson/cedms/internal/notify"
	otpService "github.com/allisson/cedms/internal/otp/service"
	otpUseCase "github.com/allisson/cedms/internal/otp/usecase"
	userRepository "github.com/allisson/cedms/internal/user/repository"
)

// sessionKeySize is the HS256 key length derived from the master key.
const sessionKeySize = 32

// UserRepository returns the account repository.
func (c *Container) UserRepository() (*userRepository.UserRepository, error) {
	return resolve(c, &c.userRepoInit, "userRepo", &c.userRepo, func() (*userRepository.UserRepository, error) {
		store, err := c.Store()
		if err != nil {
			return nil, fmt.Errorf("failed to get store for user repository: %w", err)
		}
		return userRepository.NewUserRepository(store), nil
	})
}

// PasswordService returns the argon2id password verifier.
func (c *Container) PasswordService() (authService.PasswordService, error) {
	return resolve(c, &c.passwordInit, "passwordService", &c.passwordService, authService.NewPasswordService)
}

// TokenService returns the session token service.
func (c *Container) TokenService() (authService.TokenService, error) {
	return resolve(c, &c.tokenServiceInit, "tokenService", &c.tokenService, c.initTokenService)
}

// OTPManager returns the in-process passcode store.
func (c *Container) OTPManager() otpUseCase.Manager {
	c.otpManagerInit.Do(func() {
		c.otpManager = otpUseCase.NewManager(
			otpService.NewRandomGenerator(),
			c.config.OTPExpiration,
			c.config.OTPMaxAttempts,
		)
	})
	return c.otpManager
}

// Notifier returns the passcode delivery channel.
func (c *Container) Notifier() notify.Notifier {
	c.notifierInit.Do(func() {
		c.notifier = notify.New(notify.SMTPConfig{
			Host:     c.config.SMTPHost,
			Port:     c.config.SMTPPort,
			Username: c.config.SMTPUsername,
			Password: c.config.SMTPPassword,
			From:     c.config.SMTPFrom,
		}, c.Logger())
	})
	return c.notifier
}

// AuthUseCase returns the authentication flows wrapped with business metrics.
func (c *Container) AuthUseCase() (authUseCase.AuthUseCase, error) {
	return resolve(c, &c.authUseCaseInit, "authUseCase", &c.authUseCase, c.initAuthUseCase)
}

// AuthHandler returns the auth HTTP handler.
func (c *Container) AuthHandler() (*authHTTP.AuthHandler, error) {
	return resolve(c, &c.authHandlerInit, "authHandler", &c.authHandler, func() (*authHTTP.AuthHandler, error) {
		useCase, err := c.AuthUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get auth use case for auth handler: %w", err)
		}
		return authHTTP.NewAuthHandler(useCase, c.Logger()), nil
	})
}

// initTokenService signs with JWT_SECRET when set, otherwise with a key
// derived from the master key so tokens survive restarts without extra config.
func (c *Container) initTokenService() (authService.TokenService, error) {
	var key []byte
	if c.config.JWTSecret != "" {
		key = []byte(c.config.JWTSecret)
	} else {
		material, err := c.KeyMaterial()
		if err != nil {
			return nil, fmt.Errorf("failed to get key material for token service: %w", err)
		}
		key, err = cryptoService.DeriveKey(material.MasterKey, cryptoService.SessionTokenKeyInfo, sessionKeySize)
		if err != nil {
			return nil, fmt.Errorf("failed to derive session token key: %w", err)
		}
		defer cryptoDomain.Zero(key)
	}

	tokens, err := authService.NewTokenService(key, c.config.JWTIssuer, c.config.JWTExpiration)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}
	return tokens, nil
}

func (c *Container) initAuthUseCase() (authUseCase.AuthUseCase, error) {
	users, err := c.UserRepository()
	if err != nil {
		return nil, err
	}
	passwords, err := c.PasswordService()
	if err != nil {
		return nil, fmt.Errorf("failed to get password service for auth use case: %w", err)
	}
	tokens, err := c.TokenService()
	if err != nil {
		return nil, err
	}
	ledger, err := c.Ledger()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger for auth use case: %w", err)
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for auth use case: %w", err)
	}

	useCase, err := authUseCase.NewAuthUseCase(
		users,
		c.OTPManager(),
		tokens,
		passwords,
		c.Notifier(),
		ledger,
		c.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth use case: %w", err)
	}

	return authUseCase.NewAuthUseCaseWithMetrics(useCase, businessMetrics), nil
}
