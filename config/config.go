package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	VNPay    VNPayConfig
	Wallet   WalletConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// VNPayConfig holds merchant credentials for the VNPay redirect gateway.
type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	BaseURL    string
	ReturnURL  string // browser lands here after payment; must match merchant portal config
	IPNURL     string
	ResultURL  string // frontend page the return handler redirects to with a status param
	// Expiry is the vnp_ExpireDate window embedded in every payment URL.
	Expiry time.Duration
}

type WalletConfig struct {
	MinTopup       int64 // VND
	MaxTopup       int64
	PremiumFee     int64 // debit per premium listing upgrade
	CommissionRate float64
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8080"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DB_DSN", "nhadat:nhadat@tcp(localhost:3306)/nhadat?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getenv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "nhadat",
		},
		VNPay: VNPayConfig{
			TmnCode:    getenv("VNPAY_TMN_CODE", "DEMOV210"),
			HashSecret: getenv("VNPAY_HASH_SECRET", "change-me-vnpay-secret"),
			BaseURL:    getenv("VNPAY_BASE_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			ReturnURL:  getenv("VNPAY_RETURN_URL", "http://localhost:8080/api/v1/wallet/vnpay/return"),
			IPNURL:     getenv("VNPAY_IPN_URL", "http://localhost:8080/api/v1/wallet/vnpay/ipn"),
			ResultURL:  getenv("VNPAY_RESULT_URL", "http://localhost:3000/vi/ket-qua"),
			Expiry:     15 * time.Minute,
		},
		Wallet: WalletConfig{
			MinTopup:       getenvInt64("WALLET_MIN_TOPUP", 10_000),
			MaxTopup:       getenvInt64("WALLET_MAX_TOPUP", 100_000_000),
			PremiumFee:     getenvInt64("WALLET_PREMIUM_FEE", 50_000),
			CommissionRate: 0.02,
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
