package element

import "fmt"

// New allocates an element of the given tag with its parameter storage bound
// to the arena. An unknown tag is a configuration error.
func New(tag Tag, a *Arena) (Element, error) {
	switch tag {
	case TagDrift:
		return newDrift(a), nil
	case TagMarker:
		return newMarker(a), nil
	case TagMultipole:
		return newMultipole(a), nil
	case TagBend:
		return newBend(a), nil
	case TagCombinedFunctionMagnet:
		return newCombinedFunctionMagnet(a), nil
	case TagDipoleEdge:
		return newDipoleEdge(a), nil
	case TagQuadrupole:
		return newQuadrupole(a), nil
	case TagSextupole:
		return newSextupole(a), nil
	case TagSolenoid:
		return newSolenoid(a), nil
	case TagCavity:
		return newCavity(a), nil
	case TagRFMultipole:
		return newRFMultipole(a), nil
	case TagWire:
		return newWire(a), nil
	case TagSRotation:
		return newSRotation(a), nil
	case TagXRotation:
		return newXRotation(a), nil
	case TagYRotation:
		return newYRotation(a), nil
	case TagXYShift:
		return newXYShift(a), nil
	case TagFirstOrderTaylorMap:
		return newFirstOrderTaylorMap(a), nil
	case TagNonLinearLens:
		return newNonLinearLens(a), nil
	case TagBeamBeam4D:
		return newBeamBeam4D(a), nil
	case TagInterpolatedProfile:
		return newInterpolatedProfile(a), nil
	case TagLimitRect:
		return newLimitRect(a), nil
	case TagLimitEllipse:
		return newLimitEllipse(a), nil
	case TagLimitRectEllipse:
		return newLimitRectEllipse(a), nil
	case TagLimitRacetrack:
		return newLimitRacetrack(a), nil
	case TagLimitPolygon:
		return newLimitPolygon(a), nil
	}
	return nil, fmt.Errorf("element: unknown element tag %q", tag)
}
