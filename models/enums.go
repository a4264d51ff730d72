package models

type ProviderFrequency string

const (
	ProviderFrequencyWeekly   ProviderFrequency = "weekly"
	ProviderFrequencyBiweekly ProviderFrequency = "biweekly"
	ProviderFrequencyMonthly  ProviderFrequency = "monthly"
)

func (f ProviderFrequency) IsValid() bool {
	switch f {
	case ProviderFrequencyWeekly, ProviderFrequencyBiweekly, ProviderFrequencyMonthly:
		return true
	}
	return false
}

type ProviderStatus string

const (
	ProviderStatusActive ProviderStatus = "active"
	ProviderStatusPaused ProviderStatus = "paused"
)

func (s ProviderStatus) IsValid() bool {
	return s == ProviderStatusActive || s == ProviderStatusPaused
}

type WeekProviderStatus string

const (
	WeekProviderStatusPending WeekProviderStatus = "pending"
	WeekProviderStatusDone    WeekProviderStatus = "done"
)

func (s WeekProviderStatus) IsValid() bool {
	return s == WeekProviderStatusPending || s == WeekProviderStatusDone
}
