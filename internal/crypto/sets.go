package crypto

type PublicKeySet map[PublicKey]struct{}

func NewPublicKeySet(keys ...PublicKey) PublicKeySet {
	set := make(PublicKeySet, len(keys))
	for _, k := range keys {
		set.Add(k)
	}
	return set
}

func (set PublicKeySet) Add(key PublicKey) {
	set[key] = struct{}{}
}

func (set PublicKeySet) Has(key PublicKey) bool {
	_, ok := set[key]
	return ok
}
