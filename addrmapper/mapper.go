// Package addrmapper translates physical addresses into device address
// vectors. Mappers are pure functions of the device organization.
package addrmapper

import (
	"fmt"
	"math/bits"

	"github.com/AIALRA-0/Ramulator2-ECC/dram"
)

// A Mapper converts a physical address into an address vector with one index
// per hierarchy level.
type Mapper interface {
	Map(addr uint64) dram.AddrVec

	// Reverse reconstructs the physical address of a fully-specified
	// address vector. It is the inverse of Map for every in-range address
	// aligned to the access size; Map drops the bits below that size.
	Reverse(vec dram.AddrVec) uint64
}

// roBaRaCoCh interleaves channels on the lowest bits above the access unit,
// then column, rank, bank, bank group, and row towards the most significant
// bits.
type roBaRaCoCh struct {
	org      dram.Organization
	txOffset uint
}

// NewRoBaRaCoCh creates the default mapper. accessBytes is the number of
// bytes one access moves, typically bus width times burst length over eight.
// Every organization count and accessBytes must be a power of two.
func NewRoBaRaCoCh(org dram.Organization, accessBytes int) (Mapper, error) {
	counts := []int{
		accessBytes, org.Channels, org.Ranks, org.BankGroups,
		org.Banks, org.Rows, org.Columns,
	}
	for _, c := range counts {
		if c <= 0 || bits.OnesCount(uint(c)) != 1 {
			return nil, fmt.Errorf(
				"address mapping requires power-of-two sizes, got %d", c)
		}
	}

	return &roBaRaCoCh{
		org:      org,
		txOffset: uint(bits.TrailingZeros(uint(accessBytes))),
	}, nil
}

func (m *roBaRaCoCh) Map(addr uint64) dram.AddrVec {
	a := addr >> m.txOffset

	slice := func(count int) int {
		v := a % uint64(count)
		a /= uint64(count)

		return int(v)
	}

	channel := slice(m.org.Channels)
	column := slice(m.org.Columns)
	rank := slice(m.org.Ranks)
	bank := slice(m.org.Banks)
	bankGroup := slice(m.org.BankGroups)
	row := slice(m.org.Rows)

	return dram.AddrVec{channel, rank, bankGroup, bank, row, column}
}

func (m *roBaRaCoCh) Reverse(vec dram.AddrVec) uint64 {
	a := uint64(vec[4]) // row

	a = a*uint64(m.org.BankGroups) + uint64(vec[2])
	a = a*uint64(m.org.Banks) + uint64(vec[3])
	a = a*uint64(m.org.Ranks) + uint64(vec[1])
	a = a*uint64(m.org.Columns) + uint64(vec[5])
	a = a*uint64(m.org.Channels) + uint64(vec[0])

	return a << m.txOffset
}
