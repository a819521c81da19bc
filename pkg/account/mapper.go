package account

import (
	"fmt"

	"github.com/jinzhu/copier"
)

// ToInfo maps an account to its API-safe projection. Sensitive fields
// (password hash, two-factor secret) are not part of AccountInfo, so the
// field-name copy drops them.
func ToInfo(acct Account) (AccountInfo, error) {
	var info AccountInfo
	if err := copier.Copy(&info, &acct); err != nil {
		return AccountInfo{}, fmt.Errorf("failed to map account: %w", err)
	}
	return info, nil
}
