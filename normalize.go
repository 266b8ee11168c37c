package icydb

import (
	"fmt"
	"sort"
)

// Normalize rewrites p into its canonical form: flattened And/Or trees,
// double negation removed, Always/Never absorbed per boolean-algebra
// identities, and constant-foldable FieldPredicates (operand variant
// statically incompatible with the declared field under the chosen
// CoercionMode) collapsed to Never. Two predicates that normalize to the
// same tree are considered equivalent by the plan fingerprinting
// (QuerySignature in querysignature.go).
//
// Grounded on the teacher's queryoptimizer.normalizeConditionTree /
// normalizeKvPredicate shape: recursive descent rebuilding the tree bottom
// up, folding constants as it goes.
func Normalize(p Predicate, m EntityModel) (Predicate, error) {
	switch pr := p.(type) {
	case FieldPredicate:
		return normalizeField(pr, m)
	case And:
		return normalizeAnd(pr, m)
	case Or:
		return normalizeOr(pr, m)
	case Not:
		return normalizeNot(pr, m)
	case Always, Never:
		return pr, nil
	default:
		return nil, queryErrorf(ErrValidate, "unknown predicate node %T", p)
	}
}

func normalizeField(pr FieldPredicate, m EntityModel) (Predicate, error) {
	decl, ok := m.Field(pr.Field)
	if !ok {
		return nil, queryErrorf(ErrValidate, "unknown field %q", pr.Field).WithField(pr.Field)
	}
	if pr.Op == OpIsMissing || pr.Op == OpIsNull || pr.Op == OpIsEmpty || pr.Op == OpIsNotEmpty {
		return pr, nil
	}
	if pr.Op == OpStartsWith || pr.Op == OpEndsWith || pr.Op == OpTextContainsCS || pr.Op == OpTextContainsCI {
		if decl.Kind.Kind != KindText {
			return Never{}, nil
		}
		return pr, nil
	}
	if pr.Op == OpMapContainsKey || pr.Op == OpMapContainsValue || pr.Op == OpMapContainsEntry {
		if decl.Kind.Kind != KindMap {
			return Never{}, nil
		}
		return pr, nil
	}
	if pr.Op == OpIn {
		if len(pr.Operands) == 0 {
			return Never{}, nil
		}
		filtered := pr.Operands[:0:0]
		for _, operand := range pr.Operands {
			if fieldAcceptsOperand(decl, operand, pr.Coercion) {
				filtered = append(filtered, operand)
			}
		}
		if len(filtered) == 0 {
			return Never{}, nil
		}
		out := pr
		out.Operands = filtered
		return out, nil
	}
	if !fieldAcceptsOperand(decl, pr.Operand, pr.Coercion) {
		return Never{}, nil
	}
	return pr, nil
}

// fieldAcceptsOperand reports whether the declared field's kind can ever
// compare non-trivially against operand's variant under mode, without
// evaluating any actual row. Strict requires an exact kind match;
// NumericWiden/TextCasefold require both sides to share the coercion
// family; CollectionElement defers entirely to eval time.
func fieldAcceptsOperand(decl FieldDecl, operand Value, mode CoercionMode) bool {
	switch mode {
	case CoercionStrict:
		return decl.Kind.Kind == operand.Kind()
	case CoercionNumericWiden:
		return familyOfKind(decl.Kind.Kind) == FamilyNumeric && Family(operand) == FamilyNumeric
	case CoercionTextCasefold:
		return familyOfKind(decl.Kind.Kind) == FamilyTextual && Family(operand) == FamilyTextual
	case CoercionCollectionElement:
		return decl.Kind.Kind == KindList || decl.Kind.Kind == KindSet || decl.Kind.Kind == KindMap
	default:
		return false
	}
}

func familyOfKind(k Kind) CoercionFamily {
	switch k {
	case KindUint, KindInt, KindDecimal:
		return FamilyNumeric
	case KindText:
		return FamilyTextual
	default:
		return FamilyOpaque
	}
}

func normalizeAnd(pr And, m EntityModel) (Predicate, error) {
	var flat []Predicate
	for _, child := range pr.Children {
		n, err := Normalize(child, m)
		if err != nil {
			return nil, err
		}
		switch c := n.(type) {
		case Never:
			return Never{}, nil
		case Always:
			continue
		case And:
			flat = append(flat, c.Children...)
		default:
			flat = append(flat, n)
		}
	}
	switch len(flat) {
	case 0:
		return Always{}, nil
	case 1:
		return flat[0], nil
	default:
		sortPredicates(flat)
		return And{Children: flat}, nil
	}
}

func normalizeOr(pr Or, m EntityModel) (Predicate, error) {
	var flat []Predicate
	for _, child := range pr.Children {
		n, err := Normalize(child, m)
		if err != nil {
			return nil, err
		}
		switch c := n.(type) {
		case Always:
			return Always{}, nil
		case Never:
			continue
		case Or:
			flat = append(flat, c.Children...)
		default:
			flat = append(flat, n)
		}
	}
	switch len(flat) {
	case 0:
		return Never{}, nil
	case 1:
		return flat[0], nil
	default:
		sortPredicates(flat)
		return Or{Children: flat}, nil
	}
}

// sortPredicates orders children by a deterministic structural key so that
// two predicates built from differently-ordered clauses normalize to the
// same tree (required for plan fingerprinting, spec §4.1/§4.2: "Sort
// children of And/Or by a deterministic structural key").
func sortPredicates(children []Predicate) {
	sort.SliceStable(children, func(i, j int) bool {
		return predicateSortKey(children[i]) < predicateSortKey(children[j])
	})
}

// predicateSortKey renders p into a totally-ordered string key. It is a
// structural fingerprint, not user-facing output: field name and operator
// dominate, then the operand's canonical debug rendering breaks ties
// between predicates on the same field/op.
func predicateSortKey(p Predicate) string {
	switch pr := p.(type) {
	case FieldPredicate:
		switch pr.Op {
		case OpIn:
			parts := make([]string, len(pr.Operands))
			for i, v := range pr.Operands {
				parts[i] = String(v)
			}
			sort.Strings(parts)
			return fmt.Sprintf("0:%s:%d:%d:%v", pr.Field, pr.Op, pr.Coercion, parts)
		case OpIsMissing, OpIsNull, OpIsEmpty, OpIsNotEmpty:
			return fmt.Sprintf("0:%s:%d:%d", pr.Field, pr.Op, pr.Coercion)
		case OpMapContainsEntry:
			return fmt.Sprintf("0:%s:%d:%d:%s:%s", pr.Field, pr.Op, pr.Coercion, String(pr.Operand), String(pr.Operand2))
		default:
			return fmt.Sprintf("0:%s:%d:%d:%s", pr.Field, pr.Op, pr.Coercion, String(pr.Operand))
		}
	case And:
		keys := make([]string, len(pr.Children))
		for i, c := range pr.Children {
			keys[i] = predicateSortKey(c)
		}
		return fmt.Sprintf("1:and:%v", keys)
	case Or:
		keys := make([]string, len(pr.Children))
		for i, c := range pr.Children {
			keys[i] = predicateSortKey(c)
		}
		return fmt.Sprintf("2:or:%v", keys)
	case Not:
		return fmt.Sprintf("3:not:%s", predicateSortKey(pr.Child))
	case Always:
		return "4:always"
	case Never:
		return "5:never"
	default:
		return fmt.Sprintf("9:%T", p)
	}
}

func normalizeNot(pr Not, m EntityModel) (Predicate, error) {
	child, err := Normalize(pr.Child, m)
	if err != nil {
		return nil, err
	}
	switch c := child.(type) {
	case Always:
		return Never{}, nil
	case Never:
		return Always{}, nil
	case Not:
		return c.Child, nil
	default:
		return Not{Child: child}, nil
	}
}
