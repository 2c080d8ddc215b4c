package auth

import (
	"reflect"
	"testing"
)

func TestGetPermissionForAPI(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		method   string
		expected *StaffPermission
	}{
		{name: "orders list", path: "/api/stall/orders", method: "GET", expected: permPtr(PermOrders)},
		{name: "order status", path: "/api/stall/orders/42/status", method: "PATCH", expected: permPtr(PermOrders)},
		{name: "stocks adjust", path: "/api/stall/stocks/adjust", method: "POST", expected: permPtr(PermInventory)},
		{name: "capacity", path: "/api/stall/capacity", method: "GET", expected: permPtr(PermInventory)},
		{name: "profile write is settings", path: "/api/stall/profile", method: "PUT", expected: permPtr(PermStallSettings)},
		{name: "profile read ungated", path: "/api/stall/profile", method: "GET", expected: nil},
		{name: "uploads need menu", path: "/api/stall/upload/menu-image", method: "POST", expected: permPtr(PermMenu)},
		{name: "unmapped path", path: "/api/stall/staff", method: "GET", expected: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GetPermissionForAPI(tc.path, tc.method)
			if (got == nil) != (tc.expected == nil) {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
			if got != nil && *got != *tc.expected {
				t.Fatalf("expected %s, got %s", *tc.expected, *got)
			}
		})
	}
}

func TestNormalizeStaffPermissions(t *testing.T) {
	got := NormalizeStaffPermissions([]string{" Orders ", "menu", "orders", "bogus", "INVENTORY"})
	expected := []string{"orders", "menu", "inventory"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}

	if got := NormalizeStaffPermissions(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func permPtr(p StaffPermission) *StaffPermission {
	return &p
}
