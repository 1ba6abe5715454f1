// Package lookup holds the static driver and telemetry channel tables.
package lookup

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/f1data/telemetry-service/pkg/model"
)

// Field selects a column of the driver table.
type Field int

const (
	Number Field = iota
	Abbreviation
	Team
)

var drivers = []model.Driver{
	{Number: "44", Abbreviation: "HAM", Team: "Mercedes"},
	{Number: "77", Abbreviation: "BOT", Team: "Mercedes"},
	{Number: "5", Abbreviation: "VET", Team: "Ferrari"},
	{Number: "16", Abbreviation: "LEC", Team: "Ferrari"},
	{Number: "33", Abbreviation: "VER", Team: "Red Bull"},
	{Number: "23", Abbreviation: "ALB", Team: "Red Bull"},
	{Number: "55", Abbreviation: "SAI", Team: "McLaren"},
	{Number: "4", Abbreviation: "NOR", Team: "McLaren"},
	{Number: "11", Abbreviation: "PER", Team: "Racing Point"},
	{Number: "18", Abbreviation: "STR", Team: "Racing Point"},
	{Number: "3", Abbreviation: "RIC", Team: "Renault"},
	{Number: "31", Abbreviation: "OCO", Team: "Renault"},
	{Number: "26", Abbreviation: "KVY", Team: "Alpha Tauri"},
	{Number: "10", Abbreviation: "GAS", Team: "Alpha Tauri"},
	{Number: "8", Abbreviation: "GRO", Team: "Haas F1 Team"},
	{Number: "20", Abbreviation: "MAG", Team: "Haas F1 Team"},
	{Number: "7", Abbreviation: "RAI", Team: "Alfa Romeo"},
	{Number: "99", Abbreviation: "GIO", Team: "Alfa Romeo"},
	{Number: "6", Abbreviation: "LAT", Team: "Williams"},
	{Number: "63", Abbreviation: "RUS", Team: "Williams"},
	{Number: "88", Abbreviation: "KUB", Team: "Alfa Romeo"},
}

var channels = []model.Channel{
	{ID: "0", Name: "RPM"},
	{ID: "2", Name: "Speed"},
	{ID: "3", Name: "nGear"},
	{ID: "4", Name: "Throttle"},
	{ID: "5", Name: "Brake"},
	{ID: "45", Name: "DRS"},
}

func (f Field) of(d model.Driver) string {
	switch f {
	case Number:
		return d.Number
	case Abbreviation:
		return d.Abbreviation
	case Team:
		return d.Team
	default:
		return ""
	}
}

// DriverQuery returns the get column of all drivers whose by column equals value.
func DriverQuery(by Field, value string, get Field) []string {
	matches := lo.Filter(drivers, func(d model.Driver, _ int) bool {
		return by.of(d) == value
	})
	return lo.Map(matches, func(d model.Driver, _ int) string {
		return get.of(d)
	})
}

// DriverNumberFor resolves a driver abbreviation to the car number.
func DriverNumberFor(abbreviation string) (string, error) {
	return single(Abbreviation, abbreviation, Number)
}

func single(by Field, value string, get Field) (string, error) {
	res := DriverQuery(by, value, get)
	switch len(res) {
	case 0:
		return "", fmt.Errorf("driver %q: %w", value, model.ErrNotFound)
	case 1:
		return res[0], nil
	default:
		return "", fmt.Errorf("driver %q matches %d entries: %w",
			value, len(res), model.ErrAmbiguousLookup)
	}
}

func AllDrivers() []model.Driver {
	return append([]model.Driver(nil), drivers...)
}

func AllDriverAbbreviations() []string {
	return lo.Map(drivers, func(d model.Driver, _ int) string {
		return d.Abbreviation
	})
}

func AllChannels() []model.Channel {
	return append([]model.Channel(nil), channels...)
}

// ChannelByName returns the channel with the given name.
func ChannelByName(name string) (model.Channel, error) {
	c, ok := lo.Find(channels, func(c model.Channel) bool {
		return c.Name == name
	})
	if !ok {
		return model.Channel{}, fmt.Errorf("channel %q: %w", name, model.ErrNotFound)
	}
	return c, nil
}
