package auth

import "strings"

type StaffPermission string

const (
	PermOrders        StaffPermission = "orders"
	PermMenu          StaffPermission = "menu"
	PermInventory     StaffPermission = "inventory"
	PermPromotions    StaffPermission = "promotions"
	PermStallSettings StaffPermission = "stall_settings"
	PermReports       StaffPermission = "reports"
)

var apiPermissionMap = map[string]StaffPermission{
	"/api/stall/orders":     PermOrders,
	"/api/stall/menu":       PermMenu,
	"/api/stall/stocks":     PermInventory,
	"/api/stall/capacity":   PermInventory,
	"/api/stall/promotions": PermPromotions,
	"/api/stall/reports":    PermReports,
	"PUT /api/stall/profile": PermStallSettings,
	"/api/stall/upload":      PermMenu,
}

var knownStaffPermissions = map[string]StaffPermission{
	string(PermOrders):        PermOrders,
	string(PermMenu):          PermMenu,
	string(PermInventory):     PermInventory,
	string(PermPromotions):    PermPromotions,
	string(PermStallSettings): PermStallSettings,
	string(PermReports):       PermReports,
}

// NormalizeStaffPermissions drops unknown values and duplicates, preserving
// input order.
func NormalizeStaffPermissions(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if _, ok := knownStaffPermissions[v]; !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// GetPermissionForAPI returns the staff permission gating a path, preferring
// the longest matching prefix and method-specific entries over generic ones.
func GetPermissionForAPI(path string, method string) *StaffPermission {
	method = strings.ToUpper(strings.TrimSpace(method))

	var bestPath string
	var bestPerm *StaffPermission
	var bestMethodSpecific bool

	for key, perm := range apiPermissionMap {
		keyMethod := ""
		keyPath := key
		methodSpecific := false
		if strings.Contains(key, " ") {
			parts := strings.SplitN(key, " ", 2)
			keyMethod = strings.ToUpper(strings.TrimSpace(parts[0]))
			keyPath = strings.TrimSpace(parts[1])
			methodSpecific = true
			if method == "" || method != keyMethod {
				continue
			}
		}

		if !strings.HasPrefix(path, keyPath) {
			continue
		}

		if bestPerm == nil || len(keyPath) > len(bestPath) || (len(keyPath) == len(bestPath) && methodSpecific && !bestMethodSpecific) {
			bestPath = keyPath
			bestMethodSpecific = methodSpecific
			permCopy := perm
			bestPerm = &permCopy
		}
	}

	return bestPerm
}
