package registry

import "github.com/matdex-io/matdex/internal/domain/filter"

// Filter groups of the default table.
const (
	GroupMetadata   = "metadata"
	GroupMaterial   = "material"
	GroupSymmetry   = "symmetry"
	GroupElectronic = "electronic"
	GroupProperties = "properties"
)

const propertiesFilter = "results.properties.available_properties"

// Default builds the standard materials-science filter table. The
// table is fixed; a broken declaration is a programming error and
// panics at start-up.
func Default() *Registry {
	b := NewBuilder()

	b.Register("entry_id", GroupMetadata, filter.Config{
		DType: filter.String, Multiple: true,
	})
	b.Register("upload_id", GroupMetadata, filter.Config{
		DType: filter.String, Multiple: true,
	})
	b.Register("upload_create_time", GroupMetadata, filter.Config{
		DType: filter.Timestamp,
		Aggregation: &filter.Aggregation{
			Type: filter.AggHistogram, Size: 30,
		},
	})
	b.Register("authors.name", GroupMetadata, filter.Config{
		DType: filter.String, Multiple: true,
	})
	b.Register("visibility", GroupMetadata, filter.Config{
		DType:   filter.String,
		Global:  true,
		Default: filter.Scalar("visible"),
	})

	b.Register("results.material", GroupMaterial, filter.Config{
		DType: filter.String,
	},
		Sub{Name: "material_id", Config: filter.Config{
			DType: filter.String, Multiple: true,
		}},
		Sub{Name: "chemical_formula_hill", Config: filter.Config{
			DType: filter.String,
		}},
		Sub{Name: "elements", Config: filter.Config{
			DType:     filter.String,
			Multiple:  true,
			QueryMode: filter.QueryAll,
			Aggregation: &filter.Aggregation{
				Type: filter.AggTerms, Size: 20,
			},
		}},
		Sub{Name: "elements_exclusive", Config: filter.Config{
			DType:     filter.String,
			Multiple:  true,
			Exclusive: true,
			QueryMode: filter.QueryAll,
		}},
		Sub{Name: "n_elements", Config: filter.Config{
			DType: filter.Int,
			Aggregation: &filter.Aggregation{
				Type: filter.AggMinMax,
			},
		}},
	)

	b.Register("results.material.symmetry.crystal_system", GroupSymmetry, filter.Config{
		DType: filter.Enum,
		Options: []filter.Option{
			{Value: "triclinic"},
			{Value: "monoclinic"},
			{Value: "orthorhombic"},
			{Value: "tetragonal"},
			{Value: "trigonal"},
			{Value: "hexagonal"},
			{Value: "cubic"},
		},
		Aggregation: &filter.Aggregation{Type: filter.AggTerms, Size: 7},
	})
	b.Register("results.material.symmetry.space_group_number", GroupSymmetry, filter.Config{
		DType: filter.Int,
	})

	b.Register("results.properties.electronic.band_gap", GroupElectronic, filter.Config{
		DType: filter.Float,
		Unit:  "eV",
		Aggregation: &filter.Aggregation{
			Type: filter.AggHistogram, Size: 20,
		},
	})
	b.Register("results.properties.mechanical.mass_density", GroupProperties, filter.Config{
		DType: filter.Float,
		Unit:  "kg/m^3",
	})

	b.Register(propertiesFilter, GroupProperties, filter.Config{
		DType:     filter.String,
		Multiple:  true,
		QueryMode: filter.QueryAll,
		Aggregation: &filter.Aggregation{
			Type: filter.AggTerms, Size: 40,
		},
	})
	b.RegisterOptions("electronic_properties", GroupElectronic, propertiesFilter,
		"Electronic properties", "Availability of electronic property data",
		[]filter.Option{
			{Value: "band_structure_electronic", Label: "Band structure"},
			{Value: "dos_electronic", Label: "Density of states"},
			{Value: "band_gap", Label: "Band gap"},
		})
	b.RegisterOptions("optical_properties", GroupProperties, propertiesFilter,
		"Optical properties", "Availability of optical property data",
		[]filter.Option{
			{Value: "absorption_spectrum", Label: "Absorption spectrum"},
			{Value: "dielectric_function", Label: "Dielectric function"},
		})
	b.RegisterOptions("mechanical_properties", GroupProperties, propertiesFilter,
		"Mechanical properties", "Availability of mechanical property data",
		[]filter.Option{
			{Value: "bulk_modulus", Label: "Bulk modulus"},
			{Value: "shear_modulus", Label: "Shear modulus"},
			{Value: "energy_volume_curve", Label: "Energy-volume curve"},
		})

	return b.MustBuild()
}
