package enums

import "testing"

func TestParseRoundTrips(t *testing.T) {
	if got, err := ParseOrderType("mixed"); err != nil || got != OrderTypeMixed {
		t.Fatalf("ParseOrderType(mixed) = %q, %v", got, err)
	}
	if _, err := ParseOrderType("MESA"); err == nil {
		t.Fatal("expected unknown order type to fail")
	}
	if got, err := ParseRole("kitchen"); err != nil || got != RoleKitchen {
		t.Fatalf("ParseRole(kitchen) = %q, %v", got, err)
	}
	if _, err := ParsePaymentMethod("card"); err == nil {
		t.Fatal("expected unknown payment method to fail")
	}
	if !ProductCategoryBeverage.IsValid() || ProductCategory("snack").IsValid() {
		t.Fatal("unexpected product category validity")
	}
}

func TestOrderTypeDestinationMapping(t *testing.T) {
	cases := []struct {
		orderType OrderType
		dest      LineDestination
		ok        bool
		table     bool
	}{
		{OrderTypeDineIn, LineDestinationDineIn, true, true},
		{OrderTypeTakeaway, LineDestinationTakeaway, true, false},
		{OrderTypeMixed, "", false, true},
	}
	for _, tc := range cases {
		dest, ok := tc.orderType.Destination()
		if dest != tc.dest || ok != tc.ok {
			t.Fatalf("%s: got (%q, %v), want (%q, %v)", tc.orderType, dest, ok, tc.dest, tc.ok)
		}
		if tc.orderType.RequiresTable() != tc.table {
			t.Fatalf("%s: RequiresTable mismatch", tc.orderType)
		}
		if ok && dest.OrderType() != tc.orderType {
			t.Fatalf("%s: destination does not map back", tc.orderType)
		}
	}
}

func TestParseFoldsCaseAndSpace(t *testing.T) {
	if got, err := ParseRole(" MANAGER "); err != nil || got != RoleManager {
		t.Fatalf("ParseRole(MANAGER) = %q, %v", got, err)
	}
	if got, err := ParseLineDestination("Dine_In"); err != nil || got != LineDestinationDineIn {
		t.Fatalf("ParseLineDestination(Dine_In) = %q, %v", got, err)
	}
	_, err := ParseKitchenStatus("cooking")
	if err == nil || err.Error() != `invalid kitchen status "cooking"` {
		t.Fatalf("unexpected error %v", err)
	}
}
