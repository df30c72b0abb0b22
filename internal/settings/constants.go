package settings

// DB config keys and defaults for settings.
const (
	// ReferralCommissionRateKey is the DB config key for the activation commission percentage.
	ReferralCommissionRateKey = "REFERRAL_COMMISSION_RATE"
	// DailyCommissionRateKey is the DB config key for the daily collection commission percentage.
	DailyCommissionRateKey = "DAILY_COMMISSION_RATE"
	// DefaultReferralCommissionRate is the seeded activation commission percentage.
	DefaultReferralCommissionRate = 10.0
	// DefaultDailyCommissionRate is the seeded daily collection commission percentage.
	DefaultDailyCommissionRate = 5.0
)
