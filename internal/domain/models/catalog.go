package models

// Catalog is the static shop configuration shared read-only by every session.
type Catalog struct {
	ShopName string
	Staff    []string
	Services []Service
	// Schedule is the master list of half-hour slots for a business day.
	Schedule []string
}

// DefaultCatalog returns the barbershop roster, services and master schedule.
func DefaultCatalog(shopName string) Catalog {
	if shopName == "" {
		shopName = "Barbería Elite"
	}
	return Catalog{
		ShopName: shopName,
		Staff:    []string{"Carlos", "Andrés", "Miguel"},
		Services: []Service{
			{ID: "1", Name: "Corte", Price: 20000},
			{ID: "2", Name: "Barba", Price: 15000},
			{ID: "3", Name: "Corte + Barba", Price: 32000},
		},
		// 11:00 is held back for the midday break.
		Schedule: []string{
			"08:00", "08:30", "09:00", "09:30", "10:00", "10:30",
			"11:30", "12:00", "12:30", "13:00", "13:30", "14:00",
			"14:30", "15:00", "15:30", "16:00", "16:30", "17:00",
			"17:30", "18:00", "18:30", "19:00",
		},
	}
}

// ServiceByID looks a service up by its catalog key.
func (c Catalog) ServiceByID(id string) (Service, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}
