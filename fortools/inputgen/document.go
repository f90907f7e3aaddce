package inputgen

import (
	"fmt"

	"github.com/cp2k/fortools/fortools/directive"
)

func keyword(name string, values ...string) *directive.Keyword {
	return directive.NewKeyword(name, values...)
}

func section(name string, params ...string) *directive.Section {
	return directive.NewSection(name, params...)
}

// restartsOff disables restart files for the given print keys.
func restartsOff(keys ...string) *directive.Section {
	each := section("EACH")
	for _, key := range keys {
		each.Add(keyword(key, "-1"))
	}
	return section("RESTART").
		WithComment("writing restarts is expensive, turning them off").
		Add(each, keyword("ADD_LAST", "NO"))
}

// Document builds the global optimisation input of a Lennard-Jones cluster
// with size atoms and the energy threshold emin.
func Document(size int, emin float64, latticeConst float64) (*directive.Document, error) {
	atoms, err := Coordinates(size, latticeConst)
	if err != nil {
		return nil, err
	}

	coord := section("COORD")
	for _, atom := range atoms {
		coord.Add(keyword(atom.Label, fmt.Sprintf("%f", atom.X), fmt.Sprintf("%f", atom.Y), fmt.Sprintf("%f", atom.Z)))
	}

	global := section("GLOBAL").Add(
		keyword("PROGRAM_NAME", "GLOBAL_OPT"),
		keyword("RUN_TYPE", "NONE"),
		keyword("PROJECT_NAME", ProjectName(size)),
	)

	globalOpt := section("GLOBAL_OPT").Add(
		keyword("NUMBER_OF_WALKERS", "1"),
		keyword("Emin", fmt.Sprintf("%f", emin)),
	)

	motion := section("MOTION").Add(
		section("PRINT").Add(restartsOff("MD", "GEO_OPT")),
		&directive.Blank{},
		section("MD").Add(
			keyword("ENSEMBLE", "NVE"),
			keyword("STEPS", "1000"),
			keyword("TIMESTEP", "1.0"),
			keyword("TEMPERATURE", "300"),
			keyword("STEP_START_VAL", "1").WithComment("otherwise md_energies::md_write_output flushes trajectory"),
		),
		&directive.Blank{},
		section("GEO_OPT").Add(
			keyword("OPTIMIZER", "BFGS"),
			keyword("MAX_ITER", "3000"),
			&directive.Comment{Text: "MAX_DR 0.0001"},
			section("BFGS").Add(
				keyword("USE_RAT_FUN_OPT").WithComment("otherwise LJ particles get too close"),
				&directive.Blank{},
				restartsOff("GEO_OPT"),
			),
		),
	)

	mm := section("MM").Add(
		section("FORCEFIELD").Add(
			section("SPLINE").Add(
				keyword("R0_NB", "0.0").WithComment("solely MAX_SPLINE shall control spline range"),
				keyword("EMAX_SPLINE", "[hartree]", "1000").WithComment("yields r_min = 0.66 bohr"),
				keyword("EMAX_ACCURACY", "[hartree]", "1000"),
				keyword("EPS_SPLINE", "[hartree]", "1.0E-10").WithComment("yields 1698 spline points"),
			),
			section("NONBONDED").Add(
				section("LENNARD-JONES").Add(
					keyword("atoms", "X", "X"),
					keyword("EPSILON", "[hartree]", "0.001"),
					keyword("SIGMA", "1.0"),
					keyword("RCUT", "25.0"),
				),
			),
			section("CHARGE").Add(
				keyword("ATOM", "X"),
				keyword("CHARGE", "0.0"),
			),
		),
		section("POISSON").Add(
			section("EWALD").Add(keyword("EWALD_TYPE", "none")),
		),
		section("PRINT").Add(section("FF_INFO")),
	)

	subsys := section("SUBSYS").Add(
		section("CELL").Add(
			keyword("ABC", "[angstrom]", "50.0", "50.0", "50.0"),
			&directive.Comment{Text: "PERIODIC NONE"},
		),
		&directive.Blank{},
		coord,
		&directive.Blank{},
		section("TOPOLOGY").Add(keyword("CONNECTIVITY", "OFF")),
		&directive.Blank{},
		section("COLVAR").Add(section("U")),
		&directive.Blank{},
		section("KIND", "X").Add(
			keyword("ELEMENT", "H"),
			keyword("MASS", "1.0"),
		),
	)

	forceEval := section("FORCE_EVAL").Add(
		keyword("METHOD", "FIST"),
		mm,
		subsys,
		keyword("STRESS_TENSOR", "ANALYTICAL"),
	)

	document := &directive.Document{}
	document.Add(
		global,
		globalOpt,
		&directive.Blank{},
		motion,
		&directive.Blank{},
		forceEval,
	)
	return document, nil
}

// ProjectName is the project and file stem for a cluster size.
func ProjectName(size int) string {
	return fmt.Sprintf("LJ%03d", size)
}
