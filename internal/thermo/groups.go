package thermo

// GroupDefinitions returns the group table written as new.groups next to
// each polynomial. Each line names a group, its central atom and its
// neighbours; downstream heat-of-formation tools read it to build
// isodesmic reaction schemes.
func GroupDefinitions() string {
	return groupTable
}

const groupTable = `! QTC group definitions
! name        center  neighbours
C/C/H3        C       C H H H
C/C2/H2       C       C C H H
C/C3/H        C       C C C H
C/C4          C       C C C C
Cd/H2         C       Cd H H
Cd/C/H        C       Cd C H
Cd/C2         C       Cd C C
Ct/H          C       Ct H
Ct/C          C       Ct C
Cb/H          C       Cb Cb H
Cb/C          C       Cb Cb C
C/O/H3        C       O H H H
C/C/O/H2      C       C O H H
CO/C/H        C       O C H
CO/C2         C       O C C
O/C/H         O       C H
O/C2          O       C C
O/H2          O       H H
N/C/H2        N       C H H
N/C2/H        N       C C H
N/C3          N       C C C
N/H3          N       H H H
END
`
