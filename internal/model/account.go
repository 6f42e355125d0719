package model

// AccountID identifies a party that can hold the base asset.
type AccountID string

func (a AccountID) String() string { return string(a) }

// FundAccount is the principal account that holds contributed capital.
func FundAccount(fundName string) AccountID {
	return AccountID("fund:" + fundName)
}

// VaultAccount is the custody account of a fund's dividend vault.
func VaultAccount(fundName string) AccountID {
	return AccountID("vault:" + fundName)
}
