package component

import (
	"fmt"

	"github.com/relaylogic/relaysim/internal/model"
)

// New dispatches on a component's type tag to build the matching Kernel.
// SubCircuitInstance requires extra construction data (the pin→internal
// tab map) supplied by the instantiator, so it is built directly there,
// not through this factory.
func New(t model.ComponentType) (Kernel, error) {
	switch t {
	case model.TypeSwitch:
		return NewSwitch(), nil
	case model.TypeIndicator:
		return NewIndicator(), nil
	case model.TypeVcc:
		return NewVcc(), nil
	case model.TypeDpdtRelay:
		return NewDpdtRelay(), nil
	case model.TypeLink:
		// A FOOTPRINT Link is electrically passive within its own
		// instance — it only exists to give the instantiator a tab to
		// bridge against. It behaves exactly like an Indicator.
		return NewIndicator(), nil
	default:
		return nil, fmt.Errorf("component: unknown type %q", t)
	}
}
