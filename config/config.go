package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Company CompanyConfig `yaml:"company"`
	Pricing PricingConfig `yaml:"pricing"`
	Mail    MailConfig    `yaml:"mail"`
	Assets  AssetsConfig  `yaml:"assets"`
	Archive ArchiveConfig `yaml:"archive"`
	Drafts  DraftsConfig  `yaml:"drafts"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// CompanyConfig is the identity block printed on invoices and emails.
type CompanyConfig struct {
	Name          string `yaml:"name"`
	Address       string `yaml:"address"`
	Phone         string `yaml:"phone"`
	Email         string `yaml:"email"`
	BankName      string `yaml:"bank_name"`
	AccountName   string `yaml:"account_name"`
	AccountNumber string `yaml:"account_number"`
}

// PricingConfig holds the rate table used by the estimator. VATRate is a
// percentage (7.5 means 7.5%). Install rates are per billing unit; when a
// per-unit rate is zero the flat rate applies instead.
type PricingConfig struct {
	PricePerSqm         float64 `yaml:"price_per_sqm"`
	PricePerBoard       float64 `yaml:"price_per_board"`
	InstallRatePerSqm   float64 `yaml:"install_rate_per_sqm"`
	InstallRatePerBoard float64 `yaml:"install_rate_per_board"`
	InstallFlatRate     float64 `yaml:"install_flat_rate"`
	VATRate             float64 `yaml:"vat_rate"`
	CurrencySymbol      string  `yaml:"currency_symbol"`
	CurrencyCode        string  `yaml:"currency_code"`
	InvoicePrefix       string  `yaml:"invoice_prefix"`
}

// MailConfig configures the transactional email provider (Resend-compatible
// HTTP API). APIKey is a secret and normally comes from the environment.
type MailConfig struct {
	APIURL      string `yaml:"api_url"`
	APIKey      string `yaml:"api_key"`
	From        string `yaml:"from"`
	SalesTo     string `yaml:"sales_to"`
	PaymentLink string `yaml:"payment_link"`
}

type AssetsConfig struct {
	PublicDir   string `yaml:"public_dir"`
	LogoFile    string `yaml:"logo_file"`
	FontRegular string `yaml:"font_regular"`
	FontBold    string `yaml:"font_bold"`
	SiteURL     string `yaml:"site_url"`
}

type ArchiveConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

// Enabled reports whether the optional invoice archive is configured.
func (a *ArchiveConfig) Enabled() bool {
	return a.Endpoint != ""
}

type DraftsConfig struct {
	Dir string `yaml:"dir"`
}

type StoreConfig struct {
	MaxQuotes int `yaml:"max_quotes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

var GlobalConfig *Config

// Load reads the YAML config file, applies defaults and environment
// overrides. A missing file is not an error: hosted deployments are
// configured entirely through the environment.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(&cfg)

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Company.Name == "" {
		cfg.Company.Name = "Volt Designs & Acoustics"
	}
	if cfg.Pricing.PricePerSqm == 0 {
		cfg.Pricing.PricePerSqm = 25000
	}
	if cfg.Pricing.PricePerBoard == 0 {
		cfg.Pricing.PricePerBoard = 18000
	}
	if cfg.Pricing.VATRate == 0 {
		cfg.Pricing.VATRate = 7.5
	}
	if cfg.Pricing.CurrencySymbol == "" {
		cfg.Pricing.CurrencySymbol = "₦"
	}
	if cfg.Pricing.CurrencyCode == "" {
		cfg.Pricing.CurrencyCode = "NGN"
	}
	if cfg.Pricing.InvoicePrefix == "" {
		cfg.Pricing.InvoicePrefix = "VDA"
	}
	if cfg.Mail.APIURL == "" {
		cfg.Mail.APIURL = "https://api.resend.com"
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = "no-reply@voltdesigns.ng"
	}
	if cfg.Mail.SalesTo == "" {
		cfg.Mail.SalesTo = "sales@voltdesigns.ng"
	}
	if cfg.Assets.PublicDir == "" {
		cfg.Assets.PublicDir = "public"
	}
	if cfg.Assets.LogoFile == "" {
		cfg.Assets.LogoFile = "logo.png"
	}
	if cfg.Archive.ExpireDays == 0 {
		cfg.Archive.ExpireDays = 7
	}
	if cfg.Drafts.Dir == "" {
		cfg.Drafts.Dir = "data/drafts"
	}
	if cfg.Store.MaxQuotes == 0 {
		cfg.Store.MaxQuotes = 200
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

// applyEnvOverrides maps the environment surface the hosted site used onto
// the config struct. Env values win over the YAML file.
func applyEnvOverrides(cfg *Config) {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setStr(&cfg.Mail.APIKey, "RESEND_API_KEY")
	setStr(&cfg.Mail.From, "RESEND_FROM")
	setStr(&cfg.Mail.From, "INVOICE_FROM_EMAIL")
	setStr(&cfg.Mail.SalesTo, "QUOTE_TO")
	setStr(&cfg.Mail.PaymentLink, "PAYSTACK_PAYMENT_LINK")

	setStr(&cfg.Company.Name, "COMPANY_NAME")
	setStr(&cfg.Company.Address, "COMPANY_ADDRESS")
	setStr(&cfg.Company.Phone, "COMPANY_PHONE")
	setStr(&cfg.Company.Email, "COMPANY_EMAIL")
	setStr(&cfg.Company.BankName, "COMPANY_BANK_NAME")
	setStr(&cfg.Company.AccountName, "COMPANY_ACCOUNT_NAME")
	setStr(&cfg.Company.AccountNumber, "COMPANY_ACCOUNT_NUMBER")

	setStr(&cfg.Assets.SiteURL, "SITE_URL")

	if v := os.Getenv("VAT_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Pricing.VATRate = rate
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}
