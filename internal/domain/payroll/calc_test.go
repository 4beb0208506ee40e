package payroll

import "testing"

func TestComputeItem(t *testing.T) {
	item := ComputeItem(EmployeeSnapshot{
		EmployeeID:      "emp-1",
		BaseSalaryCents: 500000,
		AllowanceCents:  20000,
		DeductionCents:  30000,
	})
	if item.NetCents != 490000 {
		t.Fatalf("expected net 490000, got %d", item.NetCents)
	}
	if item.BaseSalaryCents != 500000 || item.AllowanceCents != 20000 || item.DeductionCents != 30000 {
		t.Fatalf("snapshot amounts not carried through: %+v", item)
	}
}

func TestComputeItemNegativeNet(t *testing.T) {
	item := ComputeItem(EmployeeSnapshot{
		EmployeeID:      "emp-2",
		BaseSalaryCents: 100000,
		DeductionCents:  150000,
	})
	if item.NetCents != -50000 {
		t.Fatalf("expected net -50000, got %d", item.NetCents)
	}
}

func TestComputeItemZeroSalary(t *testing.T) {
	item := ComputeItem(EmployeeSnapshot{EmployeeID: "emp-3"})
	if item.NetCents != 0 {
		t.Fatalf("expected net 0, got %d", item.NetCents)
	}
}
