package evrc

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gregLibert/evrc-reader/pkg/tlv"
)

// NotFound replaces every field whose tag was absent from the card.
const NotFound = "Not found"

// VehicleOwner tells whether the certificate holder owns the vehicle (tag '86').
type VehicleOwner int

const (
	OwnerUnknown VehicleOwner = iota
	OwnerYes
	OwnerNo
)

// UnmarshalTLV decodes the single-byte flag: '00' is Yes, '01' is No.
func (o *VehicleOwner) UnmarshalTLV(data []byte) error {
	switch {
	case len(data) == 1 && data[0] == 0x00:
		*o = OwnerYes
	case len(data) == 1 && data[0] == 0x01:
		*o = OwnerNo
	default:
		*o = OwnerUnknown
	}
	return nil
}

func (o VehicleOwner) String() string {
	switch o {
	case OwnerYes:
		return "Yes"
	case OwnerNo:
		return "No"
	default:
		return "Unknown"
	}
}

// MarshalText is used by the JSON and YAML encoders.
func (o VehicleOwner) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText accepts the output of MarshalText.
func (o *VehicleOwner) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "yes":
		*o = OwnerYes
	case "no":
		*o = OwnerNo
	case "unknown", "":
		*o = OwnerUnknown
	default:
		return fmt.Errorf("invalid vehicle owner %q", text)
	}
	return nil
}

// Registration is the content of an eVRC. Every field names its source tag.
// Fields of RegistrationA come first, followed by those of RegistrationB.
type Registration struct {
	IssuerState             string       `tlv:"9F33,text" json:"issuer_state" yaml:"issuer_state"`
	IssuerAuthority         string       `tlv:"9F35,text" json:"issuer_authority" yaml:"issuer_authority"`
	DocumentNumber          string       `tlv:"9F38,text" json:"document_number" yaml:"document_number"`
	RegistrationNumber      string       `tlv:"81,text" json:"registration_number" yaml:"registration_number"`
	DateOfFirstRegistration string       `tlv:"82,text" json:"date_of_first_registration" yaml:"date_of_first_registration"`
	PersonalData            PersonalData `tlv:",inline" json:"personal_data" yaml:"personal_data"`
	Vehicle                 Vehicle      `tlv:",inline" json:"vehicle" yaml:"vehicle"`
	VIN                     string       `tlv:"8A,text" json:"vehicle_identification_number" yaml:"vehicle_identification_number"`
	Mass                    Mass         `tlv:",inline" json:"mass" yaml:"mass"`
	VehicleMassWithBody     string       `tlv:"8C,text" json:"vehicle_mass_with_body" yaml:"vehicle_mass_with_body"`
	PeriodOfValidity        string       `tlv:"8D,text" json:"period_of_validity" yaml:"period_of_validity"`
	DateOfRegistration      string       `tlv:"8E,text" json:"date_of_registration" yaml:"date_of_registration"`
	TypeApprovalNumber      string       `tlv:"8F,text" json:"type_approval_number" yaml:"type_approval_number"`
	Engine                  Engine       `tlv:",inline" json:"engine" yaml:"engine"`
	PowerWeightRatio        string       `tlv:"93,text" json:"power_weight_ratio" yaml:"power_weight_ratio"`
	SeatingCapacity         Seating      `tlv:",inline" json:"seating_capacity" yaml:"seating_capacity"`

	VehicleCategory    string      `tlv:"98,text" json:"vehicle_category" yaml:"vehicle_category"`
	MaximumTowableMass TowableMass `tlv:",inline" json:"maximum_towable_mass" yaml:"maximum_towable_mass"`
	Colour             string      `tlv:"9F24,text" json:"colour" yaml:"colour"`
	// Tag '25' has the constructed bit set: cards holding it as a template keep
	// this field NotFound, its children being flattened instead.
	MaximumSpeed       string      `tlv:"25,text" json:"maximum_speed" yaml:"maximum_speed"`
	ExhaustEmissions   Emissions   `tlv:",inline" json:"exhaust_emissions" yaml:"exhaust_emissions"`
}

// PersonalData groups the certificate holder and the ownership flag.
type PersonalData struct {
	CertificateHolder CertificateHolder `tlv:",inline" json:"certificate_holder" yaml:"certificate_holder"`
	VehicleOwner      VehicleOwner      `tlv:"86" json:"vehicle_owner" yaml:"vehicle_owner"`
}

// CertificateHolder identifies the holder of the registration certificate.
type CertificateHolder struct {
	SurnameOrBusinessName string `tlv:"83,text" json:"surname_or_business_name" yaml:"surname_or_business_name"`
	OtherNamesOrInitials  string `tlv:"84,text" json:"other_names_or_initials" yaml:"other_names_or_initials"`
	Address               string `tlv:"85,text" json:"address" yaml:"address"`
}

// Vehicle holds the make, type and commercial descriptions.
type Vehicle struct {
	Make                   string `tlv:"87,text" json:"make" yaml:"make"`
	Type                   string `tlv:"88,text" json:"type" yaml:"type"`
	CommercialDescriptions string `tlv:"89,text" json:"commercial_descriptions" yaml:"commercial_descriptions"`
}

// Mass holds the permissible laden masses.
type Mass struct {
	MaxTechnicallyPermissibleLadenMass string `tlv:"8B,text" json:"maximum_technically_permissible_laden_mass" yaml:"maximum_technically_permissible_laden_mass"`
	MaxPermissibleLadenMassInService   string `tlv:"86,text" json:"maximum_permissible_laden_mass_in_service" yaml:"maximum_permissible_laden_mass_in_service"`
	MaxPermissibleLadenMassOfWhole     string `tlv:"97,text" json:"maximum_permissible_laden_mass_of_whole_vehicle" yaml:"maximum_permissible_laden_mass_of_whole_vehicle"`
}

// Engine holds capacity, power and fuel.
type Engine struct {
	Capacity    string `tlv:"90,text" json:"capacity" yaml:"capacity"`
	MaxNetPower string `tlv:"91,text" json:"max_net_power" yaml:"max_net_power"`
	FuelType    string `tlv:"92,text" json:"fuel_type" yaml:"fuel_type"`
}

// Seating holds the number of seats and standing places.
type Seating struct {
	Seats          string `tlv:"94,text" json:"number_of_seats" yaml:"number_of_seats"`
	StandingPlaces string `tlv:"95,text" json:"number_of_standing_places" yaml:"number_of_standing_places"`
}

// TowableMass holds the maximum towable masses.
type TowableMass struct {
	Braked   string `tlv:"9B,text" json:"braked" yaml:"braked"`
	Unbraked string `tlv:"9C,text" json:"unbraked" yaml:"unbraked"`
}

// Emissions holds the environmental category.
type Emissions struct {
	EnvironmentalCategory string `tlv:"9F32,text" json:"environmental_category" yaml:"environmental_category"`
}

// NewRegistration returns a registration whose fields are all NotFound.
func NewRegistration() Registration {
	var reg Registration
	fillNotFound(reflect.ValueOf(&reg).Elem())
	return reg
}

// ToRegistration projects the flattened fields onto a Registration.
// Values are decoded as UTF-8 with invalid bytes replaced; absent tags read NotFound.
func ToRegistration(fields Fields) Registration {
	reg := NewRegistration()
	if err := tlv.UnmarshalFromPackets(fields.packets(), &reg); err != nil {
		logger.WithError(err).Warn("registration mapping incomplete")
	}
	return reg
}

func fillNotFound(v reflect.Value) {
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(NotFound)
		case reflect.Struct:
			fillNotFound(field)
		}
	}
}

// Describe renders one line per field with its source tag, in the report style
// used by the iso7816 package.
func (r Registration) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== eVRC REGISTRATION ===")
	tlv.WriteStructFields(&sb, "Registration", r)
	return sb.String()
}
