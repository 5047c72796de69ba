package config

type QuotaConfig struct {
	// Tier selects the quota tier applied to automatic saves.
	// "unlimited" disables quota checks.
	Tier string `env:"RECALL_QUOTA_TIER" yaml:"tier"`

	// FreeTierLimit is the per-project record cap on the free tier.
	FreeTierLimit int `env:"RECALL_QUOTA_FREE_LIMIT" yaml:"free_tier_limit"`

	// ProTierLimit is the per-project record cap on the pro tier.
	ProTierLimit int `env:"RECALL_QUOTA_PRO_LIMIT" yaml:"pro_tier_limit"`
}

func NewQuotaConfig() (*QuotaConfig, error) {
	c := QuotaConfig{
		Tier:          "unlimited",
		FreeTierLimit: 100,
		ProTierLimit:  10000,
	}
	if err := resolveConfig(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
