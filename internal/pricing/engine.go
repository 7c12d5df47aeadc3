package pricing

// ScreenTier selects the kitchen/bar screen model. The tier sets the unit
// price; it is not a surcharge on top of another price.
type ScreenTier string

const (
	ScreenTierTablet ScreenTier = "tablet"
	ScreenTierPro    ScreenTier = "pro"
)

// TerminalSourcing says whether the tenant buys new POS terminals or has the
// platform installed on hardware it already owns.
type TerminalSourcing string

const (
	TerminalSourcingNew      TerminalSourcing = "new"
	TerminalSourcingExisting TerminalSourcing = "existing"
)

// Selections are the service line items chosen in the wizard.
type Selections struct {
	VoiceKitchen    bool `json:"voiceKitchen"`
	VoiceOrders     bool `json:"voiceOrders"`
	Photography     bool `json:"photography"`
	InitialDataLoad bool `json:"initialDataLoad"`
	Training        bool `json:"training"`
	CatalogLoading  bool `json:"catalogLoading"`

	TerminalSourcing TerminalSourcing `json:"terminalSourcing"`
	Terminals        Quantity         `json:"terminals"`
	ScreenTier       ScreenTier       `json:"screenTier"`
	Screens          Quantity         `json:"screens"`
	Printers         Quantity         `json:"printers"`
	WaiterDevices    Quantity         `json:"waiterDevices"`
	Tables           Quantity         `json:"tables"`
}

// PriceList holds every unit price, flat fee and per-item maximum. The
// self-service wizard and the operator quote flow share one PriceList.
type PriceList struct {
	VoiceAddon Money

	TerminalUnit         Money
	TerminalInstallation Money
	ScreenTablet         Money
	ScreenPro            Money
	PrinterUnit          Money
	WaiterDeviceUnit     Money

	Photography     Money
	InitialDataLoad Money
	Training        Money
	CatalogLoading  Money

	TablesBaseFee   Money
	TablesThreshold int
	TablesPerExtra  Money

	MaxTerminals     int
	MaxScreens       int
	MaxPrinters      int
	MaxWaiterDevices int
	MaxTables        int

	// MaxBasePrice caps the monthly plan price so annual scaling cannot
	// overflow. Zero disables the cap.
	MaxBasePrice Money
}

// DefaultPriceList is the platform's published price list.
var DefaultPriceList = PriceList{ //nolint:gochecknoglobals // immutable price table
	VoiceAddon: 1000,

	TerminalUnit:         45000,
	TerminalInstallation: 6000,
	ScreenTablet:         18000,
	ScreenPro:            32000,
	PrinterUnit:          12000,
	WaiterDeviceUnit:     15000,

	Photography:     15000,
	InitialDataLoad: 10000,
	Training:        8000,
	CatalogLoading:  9000,

	TablesBaseFee:   5000,
	TablesThreshold: 30,
	TablesPerExtra:  200,

	MaxTerminals:     10,
	MaxScreens:       10,
	MaxPrinters:      10,
	MaxWaiterDevices: 20,
	MaxTables:        500,

	MaxBasePrice: 100_000_000,
}

// Breakdown is the cost of one monthly unit of the subscription plus the
// one-time charges. It never contains period scaling.
type Breakdown struct {
	Recurring Money `json:"recurring" doc:"Monthly subscription amount in cents"`
	OneTime   Money `json:"oneTime" doc:"One-time hardware and setup charges in cents"`
}

// Normalize clamps quantities to the price list maximums and replaces unknown
// enum values with their defaults.
func (pl PriceList) Normalize(s Selections) Selections {
	s.Terminals = s.Terminals.Clamp(pl.MaxTerminals)
	s.Screens = s.Screens.Clamp(pl.MaxScreens)
	s.Printers = s.Printers.Clamp(pl.MaxPrinters)
	s.WaiterDevices = s.WaiterDevices.Clamp(pl.MaxWaiterDevices)
	s.Tables = s.Tables.Clamp(pl.MaxTables)

	if s.ScreenTier != ScreenTierPro {
		s.ScreenTier = ScreenTierTablet
	}
	if s.TerminalSourcing != TerminalSourcingExisting {
		s.TerminalSourcing = TerminalSourcingNew
	}
	return s
}

// Compute returns the breakdown for a plan base price and a selection set.
func (pl PriceList) Compute(base Money, s Selections) Breakdown {
	s = pl.Normalize(s)
	if base < 0 {
		base = 0
	}
	if pl.MaxBasePrice > 0 && base > pl.MaxBasePrice {
		base = pl.MaxBasePrice
	}

	recurring := base
	if s.VoiceKitchen {
		recurring += pl.VoiceAddon
	}
	if s.VoiceOrders {
		recurring += pl.VoiceAddon
	}

	var oneTime Money
	oneTime += pl.terminalCost(s)
	oneTime += pl.screenUnit(s.ScreenTier) * Money(s.Screens)
	oneTime += pl.PrinterUnit * Money(s.Printers)
	oneTime += pl.WaiterDeviceUnit * Money(s.WaiterDevices)
	if s.Photography {
		oneTime += pl.Photography
	}
	if s.InitialDataLoad {
		oneTime += pl.InitialDataLoad
	}
	if s.Training {
		oneTime += pl.Training
	}
	if s.CatalogLoading {
		oneTime += pl.CatalogLoading
	}
	oneTime += pl.TableSetupFee(s.Tables)

	return Breakdown{Recurring: recurring, OneTime: oneTime}
}

// terminalCost charges either new units or the installation on existing
// hardware, never both.
func (pl PriceList) terminalCost(s Selections) Money {
	if s.TerminalSourcing == TerminalSourcingExisting {
		return pl.TerminalInstallation
	}
	return pl.TerminalUnit * Money(s.Terminals)
}

func (pl PriceList) screenUnit(tier ScreenTier) Money {
	if tier == ScreenTierPro {
		return pl.ScreenPro
	}
	return pl.ScreenTablet
}

// TableSetupFee is the table/QR setup charge: the base fee covers up to
// TablesThreshold tables, each extra table adds TablesPerExtra.
func (pl PriceList) TableSetupFee(tables Quantity) Money {
	n := int(tables.Clamp(pl.MaxTables))
	if n <= pl.TablesThreshold {
		return pl.TablesBaseFee
	}
	return pl.TablesBaseFee + Money(n-pl.TablesThreshold)*pl.TablesPerExtra
}

// Compute prices a selection with DefaultPriceList.
func Compute(base Money, s Selections) Breakdown {
	return DefaultPriceList.Compute(base, s)
}
