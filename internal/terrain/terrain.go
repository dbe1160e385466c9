// Package terrain parses the line-oriented terrain file format into a
// model.World, using bufio.Scanner plus strings/strconv: no
// structured-format library applies to this bespoke three-marker
// grammar.
package terrain

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/lorasim/lorasim/internal/model"
)

// Result is the parsed terrain file: the populated World plus the
// derived square terrain side.
type Result struct {
	World *model.World
	Side  float64 // square terrain side, sqrt(terrain area)
}

const (
	statsMarker   = "# stats: terrain="
	nodeMarker    = "# node coords:"
	gatewayMarker = "# gateway coords:"
)

// Parse reads a terrain file from r and builds a World, assigning the
// confirmed-traffic field from confirmed since the terrain file itself
// carries only position and identity.
func Parse(r io.Reader, confirmed func(id int) bool) (*Result, error) {
	world := model.NewWorld()
	res := &Result{World: world}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, statsMarker):
			area, err := parseStatsLine(line)
			if err != nil {
				return nil, errors.Wrap(err, "parsing terrain stats line")
			}
			res.Side = math.Sqrt(area)
		case strings.HasPrefix(line, nodeMarker):
			if err := parseNodeLine(line, world, confirmed); err != nil {
				return nil, errors.Wrap(err, "parsing node coords line")
			}
		case strings.HasPrefix(line, gatewayMarker):
			if err := parseGatewayLine(line, world); err != nil {
				return nil, errors.Wrap(err, "parsing gateway coords line")
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading terrain file")
	}
	if len(world.Nodes) == 0 {
		return nil, errors.New("terrain file defines no nodes")
	}
	if len(world.Gateways) == 0 {
		return nil, errors.New("terrain file defines no gateways")
	}
	return res, nil
}

// parseStatsLine extracts the float terrain area from
// "# stats: terrain=<float>m^2 ...".
func parseStatsLine(line string) (float64, error) {
	rest := strings.TrimPrefix(line, statsMarker)
	fields := strings.FieldsFunc(rest, func(r rune) bool { return r == ' ' })
	if len(fields) == 0 {
		return 0, errors.New("missing terrain area value")
	}
	numeric := strings.TrimSuffix(fields[0], "m^2")
	return strconv.ParseFloat(numeric, 64)
}

// parseNodeLine extracts "<id> [<x> <y>] <id> [<x> <y>] ..." triples
// into Node records.
func parseNodeLine(line string, world *model.World, confirmed func(int) bool) error {
	rest := strings.TrimPrefix(line, nodeMarker)
	tokens := tokenize(rest)
	for i := 0; i+3 <= len(tokens); i += 3 {
		id, err := strconv.Atoi(tokens[i])
		if err != nil {
			return errors.Wrapf(err, "node id %q", tokens[i])
		}
		x, err := strconv.ParseFloat(tokens[i+1], 64)
		if err != nil {
			return errors.Wrapf(err, "node %d x coordinate", id)
		}
		y, err := strconv.ParseFloat(tokens[i+2], 64)
		if err != nil {
			return errors.Wrapf(err, "node %d y coordinate", id)
		}
		n := model.NewNode(0, strconv.Itoa(id), x, y, confirmed(id))
		world.AddNode(n)
	}
	return nil
}

// parseGatewayLine extracts "<ID> [<x> <y>] ..." pairs into Gateway
// records; the file's alphabetic id is kept as Gateway.Label, while the
// stdout report names gateways by arena order via model.GatewayLabel.
func parseGatewayLine(line string, world *model.World) error {
	rest := strings.TrimPrefix(line, gatewayMarker)
	tokens := tokenize(rest)
	for i := 0; i+3 <= len(tokens); i += 3 {
		label := tokens[i]
		x, err := strconv.ParseFloat(tokens[i+1], 64)
		if err != nil {
			return errors.Wrapf(err, "gateway %s x coordinate", label)
		}
		y, err := strconv.ParseFloat(tokens[i+2], 64)
		if err != nil {
			return errors.Wrapf(err, "gateway %s y coordinate", label)
		}
		g := model.NewGateway(0, label, x, y)
		world.AddGateway(g)
	}
	return nil
}

// tokenize splits a line's remainder on whitespace and the bracket
// characters the "[x y]" grouping uses.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '[' || r == ']'
	})
}
