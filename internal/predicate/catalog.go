package predicate

// Catalog lists the built-in predicate signatures the host engine provides.
// FloatMask bit i is set when argument i may be a bare number instead of a
// package-qualified record reference.
func Catalog() []Signature {
	return []Signature{
		{Name: "IsEquippedRight", Arity: 1, FloatMask: 0},
		{Name: "IsEquippedRightType", Arity: 1, FloatMask: 1},
		{Name: "IsEquippedRightHasKeyword", Arity: 1, FloatMask: 0},
		{Name: "IsEquippedLeft", Arity: 1, FloatMask: 0},
		{Name: "IsEquippedLeftType", Arity: 1, FloatMask: 1},
		{Name: "IsEquippedLeftHasKeyword", Arity: 1, FloatMask: 0},
		{Name: "IsEquippedShout", Arity: 1, FloatMask: 0},
		{Name: "IsWorn", Arity: 1, FloatMask: 0},
		{Name: "IsWornHasKeyword", Arity: 1, FloatMask: 0},
		{Name: "IsFemale", Arity: 0, FloatMask: 0},
		{Name: "IsChild", Arity: 0, FloatMask: 0},
		{Name: "IsPlayerTeammate", Arity: 0, FloatMask: 0},
		{Name: "IsInInterior", Arity: 0, FloatMask: 0},
		{Name: "IsInFaction", Arity: 1, FloatMask: 0},
		{Name: "HasKeyword", Arity: 1, FloatMask: 0},
		{Name: "HasMagicEffect", Arity: 1, FloatMask: 0},
		{Name: "HasMagicEffectWithKeyword", Arity: 1, FloatMask: 0},
		{Name: "HasPerk", Arity: 1, FloatMask: 0},
		{Name: "HasSpell", Arity: 1, FloatMask: 0},
		{Name: "IsActorValueEqualTo", Arity: 2, FloatMask: 3},
		{Name: "IsActorValueLessThan", Arity: 2, FloatMask: 3},
		{Name: "IsActorValueBaseEqualTo", Arity: 2, FloatMask: 3},
		{Name: "IsActorValueBaseLessThan", Arity: 2, FloatMask: 3},
		{Name: "IsActorValueMaxEqualTo", Arity: 2, FloatMask: 3},
		{Name: "IsActorValueMaxLessThan", Arity: 2, FloatMask: 3},
		{Name: "IsActorValuePercentageEqualTo", Arity: 2, FloatMask: 3},
		{Name: "IsActorValuePercentageLessThan", Arity: 2, FloatMask: 3},
		{Name: "IsLevelLessThan", Arity: 1, FloatMask: 1},
		{Name: "IsActorBase", Arity: 1, FloatMask: 0},
		{Name: "IsRace", Arity: 1, FloatMask: 0},
		{Name: "CurrentWeather", Arity: 1, FloatMask: 0},
		{Name: "CurrentGameTimeLessThan", Arity: 1, FloatMask: 1},
		{Name: "ValueEqualTo", Arity: 2, FloatMask: 3},
		{Name: "ValueLessThan", Arity: 2, FloatMask: 3},
		{Name: "Random", Arity: 1, FloatMask: 1},
		{Name: "IsUnique", Arity: 0, FloatMask: 0},
		{Name: "IsClass", Arity: 1, FloatMask: 0},
		{Name: "IsCombatStyle", Arity: 1, FloatMask: 0},
		{Name: "IsVoiceType", Arity: 1, FloatMask: 0},
		{Name: "IsAttacking", Arity: 0, FloatMask: 0},
		{Name: "IsRunning", Arity: 0, FloatMask: 0},
		{Name: "IsSneaking", Arity: 0, FloatMask: 0},
		{Name: "IsSprinting", Arity: 0, FloatMask: 0},
		{Name: "IsInAir", Arity: 0, FloatMask: 0},
		{Name: "IsInCombat", Arity: 0, FloatMask: 0},
		{Name: "IsWeaponDrawn", Arity: 0, FloatMask: 0},
		{Name: "IsInLocation", Arity: 1, FloatMask: 0},
		{Name: "HasRefType", Arity: 1, FloatMask: 0},
		{Name: "IsParentCell", Arity: 1, FloatMask: 0},
		{Name: "IsWorldSpace", Arity: 1, FloatMask: 0},
		{Name: "IsFactionRankEqualTo", Arity: 2, FloatMask: 1},
		{Name: "IsFactionRankLessThan", Arity: 2, FloatMask: 1},
		{Name: "IsMovementDirection", Arity: 1, FloatMask: 1},
	}
}
