package taxlot

// Ingestion validation. Logically impossible input is rejected here and
// never reaches the matching or correction engines.

// ValidateSale checks a normalized sale record.
func ValidateSale(s Sale) error {
	if s.SaleDate.IsZero() {
		return Errorf(KindValidation, "sale %s: missing sale date", s.ID)
	}
	if s.Shares.IsNegative() {
		return Errorf(KindValidation, "sale %s: negative share count %s", s.ID, s.Shares)
	}
	if s.ProceedsPerShare.IsNegative() {
		return Errorf(KindValidation, "sale %s: negative proceeds per share %s", s.ID, s.ProceedsPerShare.Amount())
	}
	if s.Security.Ticker() == "" && s.Security.Name() == "" {
		return Errorf(KindValidation, "sale %s: no ticker and no security name", s.ID)
	}
	return nil
}

// ValidateLot checks a lot record, including the share counter invariant.
func ValidateLot(l *Lot) error {
	if l.AcquisitionDate.IsZero() {
		return Errorf(KindValidation, "lot %s: missing acquisition date", l.ID)
	}
	if !l.Shares.IsPositive() {
		return Errorf(KindValidation, "lot %s: share count must be positive, got %s", l.ID, l.Shares)
	}
	if l.SharesRemaining.IsNegative() || l.SharesRemaining.GreaterThan(l.Shares) {
		return Errorf(KindValidation, "lot %s: shares remaining %s outside [0, %s]", l.ID, l.SharesRemaining, l.Shares)
	}
	if l.CostPerShare.IsNegative() {
		return Errorf(KindValidation, "lot %s: negative cost per share", l.ID)
	}
	if l.Type == ISO && l.AMTCostPerShare.IsNegative() {
		return Errorf(KindValidation, "lot %s: negative AMT cost per share", l.ID)
	}
	return nil
}

// ValidateEvent checks an equity event record. An exercise or purchase dated
// before its grant or offering is impossible.
func ValidateEvent(ev *EquityEvent) error {
	if ev.EventDate.IsZero() {
		return Errorf(KindValidation, "event %s: missing event date", ev.ID)
	}
	if !ev.GrantDate.IsZero() && ev.EventDate.Before(ev.GrantDate) {
		return Errorf(KindValidation, "event %s: %s before grant/offering %s", ev.ID, ev.EventDate, ev.GrantDate)
	}
	if !ev.Shares.IsPositive() {
		return Errorf(KindValidation, "event %s: share count must be positive, got %s", ev.ID, ev.Shares)
	}
	if ev.PricePaid.IsNegative() || ev.FMV.IsNegative() || ev.FMVAtOffering.IsNegative() {
		return Errorf(KindValidation, "event %s: negative price", ev.ID)
	}
	return nil
}
