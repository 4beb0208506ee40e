package payroll

// ComputeItem turns one employee snapshot into a pay line. All arithmetic is
// integer cents; net pay may go negative, which is a business concern for the
// caller, not an error here.
func ComputeItem(snap EmployeeSnapshot) Item {
	return Item{
		EmployeeID:      snap.EmployeeID,
		BaseSalaryCents: snap.BaseSalaryCents,
		AllowanceCents:  snap.AllowanceCents,
		DeductionCents:  snap.DeductionCents,
		NetCents:        snap.BaseSalaryCents + snap.AllowanceCents - snap.DeductionCents,
	}
}
