package money

// Percent is a plain percentage in [0, 100]. It is never pre-divided by 100.
type Percent float64

// Rate is a fraction in [0, 1], used for tax rates.
type Rate float64

// Rate converts the percentage into a fraction.
func (p Percent) Rate() Rate { return Rate(float64(p) / 100) }

// Valid reports whether the percentage lies in [0, 100].
func (p Percent) Valid() bool { return p >= 0 && p <= 100 }

// Percent converts the fraction into a percentage.
func (r Rate) Percent() Percent { return Percent(float64(r) * 100) }

// Valid reports whether the fraction lies in [0, 1].
func (r Rate) Valid() bool { return r >= 0 && r <= 1 }

// Apply returns round(amount × rate).
func (r Rate) Apply(amount Money) Money {
	return Round(float64(amount) * float64(r))
}

// Of returns round(amount × p / 100).
func (p Percent) Of(amount Money) Money {
	return Round(float64(amount) * (float64(p) / 100))
}
