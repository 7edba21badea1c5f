package predict

import "realvision/pkg/domain"

// Reserves maps breed -> genotype key -> sex -> body part -> adult white id.
type Reserves map[string]map[string]map[domain.Sex]map[string]string

// Lookup returns the reserve artwork for a genotype key.
func (r Reserves) Lookup(breed, key string, sex domain.Sex) (map[string]string, bool) {
	parts, ok := r[breed][key][sex]
	return parts, ok && len(parts) > 0
}

// HasBreed reports whether any reserve artwork exists for breed.
func (r Reserves) HasBreed(breed string) bool { return len(r[breed]) > 0 }

// DefaultReserves returns the built-in reserve table. Homozygous tobiano entries
// of some breeds reuse the heterozygous art because no dedicated art exists.
func DefaultReserves() Reserves { return defaultReserves }

var defaultReserves = Reserves{
	"akhal_teke": {
		"rb/rb": {
			domain.SexStallion: {"body": "ee532f869", "tail": "ee532f869"},
			domain.SexMare:     {"body": "b821651f9", "tail": "ee532f861"},
		},
		"sb/sb": {
			domain.SexStallion: {"body": "ad686e083"},
			domain.SexMare:     {"body": "45ec369a4"},
		},
	},
	"arabian_horse": {
		"rb/rb": {
			domain.SexStallion: {"body": "d830bcf20", "tail": "f1e0fb655"},
			domain.SexMare:     {"body": "f1e0fb651", "tail": "f1e0fb657"},
		},
		"sb/sb": {
			domain.SexStallion: {"body": "6a3404f05"},
			domain.SexMare:     {"body": "144659b49"},
		},
	},
	"brabant_horse": {
		"RN": {
			domain.SexStallion: {"body": "8d15e5f79", "mane": "8d15e5f73", "tail": "8d15e5f76"},
			domain.SexMare:     {"body": "6c109d3c3", "mane": "6c109d3c9", "tail": "8d15e5f72"},
		},
	},
	"brumby_horse": {
		"TO": {
			domain.SexStallion: {"body": "87ae89518", "mane": "2283c7754", "tail": "2283c7752"},
			domain.SexMare:     {"body": "87ae89519", "mane": "87ae89513", "tail": "87ae89513"},
		},
		"TO/TO": {
			domain.SexStallion: {"body": "a9838c809", "mane": "ec314e433", "tail": "ec314e430"},
			domain.SexMare:     {"body": "a9838c809", "mane": "a9838c800", "tail": "a9838c803"},
		},
		"RN": {
			domain.SexStallion: {"body": "a7587fba7"},
			domain.SexMare:     {"body": "a7587fba6"},
		},
	},
	"finnhorse": {
		"SW1/SW1": {
			domain.SexStallion: {"body": "4b3df6d06", "tail": "4b3df6d07"},
			domain.SexMare:     {"body": "4b3df6d07", "tail": "4b3df6d09"},
		},
		"RN": {
			domain.SexStallion: {"body": "26a086ea0"},
			domain.SexMare:     {"body": "26a086ea0"},
		},
		"rb/rb": {
			domain.SexStallion: {"body": "9adcd47e5", "tail": "07b53e4e9"},
			domain.SexMare:     {"body": "9adcd47e0", "tail": "9adcd47e8"},
		},
		"SW1": {
			domain.SexStallion: {"body": "fa616ab64"},
			domain.SexMare:     {"body": "fa616ab69"},
		},
		"SW1 rb/rb": {
			domain.SexStallion: {"body": "4d9cddaa8", "tail": "4d9cddaa8"},
			domain.SexMare:     {"body": "4d9cddaa2", "tail": "4d9cddaa3"},
		},
		"sb/sb": {
			domain.SexStallion: {"body": "49d8b0b89"},
			domain.SexMare:     {"body": "49d8b0b80"},
		},
		"SW1 sb/sb": {
			domain.SexStallion: {"body": "36808cac4"},
			domain.SexMare:     {"body": "36808cac7"},
		},
		"SW1/SW1 sb/sb": {
			domain.SexStallion: {"body": "1d6bdb620", "tail": "1d6bdb620"},
			domain.SexMare:     {"body": "772eb1c19", "tail": "772eb1c19"},
		},
	},
	"icelandic_horse": {
		"SW1": {
			domain.SexStallion: {"body": "a6b777b55"},
			domain.SexMare:     {"body": "a6b777b53"},
		},
		"SW1/SW1": {
			domain.SexStallion: {"body": "84af18d19"},
			domain.SexMare:     {"body": "f9256b509"},
		},
		"RN": {
			domain.SexStallion: {"body": "eacb73ad8"},
			domain.SexMare:     {"body": "eacb73ad8"},
		},
		"TO": {
			domain.SexStallion: {"body": "e990c7e46", "mane": "3bc1360f0", "tail": "3bc1360f9"},
			domain.SexMare:     {"body": "e990c7e47", "mane": "e990c7e41", "tail": "e990c7e44"},
		},
		"TO/TO": {
			domain.SexStallion: {"body": "e990c7e46", "mane": "3bc1360f0", "tail": "3bc1360f9"},
			domain.SexMare:     {"body": "e990c7e47", "mane": "e990c7e41", "tail": "e990c7e44"},
		},
		"SW1 TO": {
			domain.SexStallion: {"body": "c2f710f85", "mane": "c2f710f87", "tail": "c2f710f82"},
			domain.SexMare:     {"body": "bf6737529", "mane": "c2f710f80", "tail": "c2f710f84"},
		},
		"SW1 TO/TO": {
			domain.SexStallion: {"body": "c2f710f85", "mane": "c2f710f87", "tail": "c2f710f82"},
			domain.SexMare:     {"body": "bf6737529", "mane": "c2f710f80", "tail": "c2f710f84"},
		},
		"SW1/SW1 TO": {
			domain.SexStallion: {"body": "ed41e7553", "mane": "ed41e7559", "tail": "ed41e7559"},
			domain.SexMare:     {"body": "56aeac3c4", "mane": "56aeac3c5", "tail": "56aeac3c3"},
		},
		"SW1/SW1 TO/TO": {
			domain.SexStallion: {"body": "ed41e7553", "mane": "ed41e7559", "tail": "ed41e7559"},
			domain.SexMare:     {"body": "56aeac3c4", "mane": "56aeac3c5", "tail": "56aeac3c3"},
		},
	},
	"irish_cob_horse": {
		"RN": {
			domain.SexStallion: {"body": "d74290788"},
			domain.SexMare:     {"body": "898b23378"},
		},
		"TO": {
			domain.SexStallion: {"body": "aa550c7f6", "mane": "b0712e883"},
			domain.SexMare:     {"body": "8186dfa76", "mane": "8186dfa79"},
		},
		"TO/TO": {
			domain.SexStallion: {"body": "834abce16", "mane": "834abce19", "tail": "1a6605788"},
			domain.SexMare:     {"body": "6ed080ad8", "mane": "6ed080ad8", "tail": "6ed080ad0"},
		},
	},
	"mustang_horse": {
		"RN": {
			domain.SexStallion: {"body": "2cad41e96"},
			domain.SexMare:     {"body": "cb6b977c2"},
		},
		"TO": {
			domain.SexStallion: {"body": "5a7a79a49", "mane": "5a7a79a43", "tail": "391f20f96"},
			domain.SexMare:     {"body": "8b957b629", "mane": "11b825733", "tail": "11b825733"},
		},
		"TO/TO": {
			domain.SexStallion: {"body": "5a7a79a49", "mane": "5a7a79a43", "tail": "391f20f96"},
			domain.SexMare:     {"body": "8b957b629", "mane": "11b825733", "tail": "11b825733"},
		},
		"OLW": {
			domain.SexStallion: {"body": "46f9c2e48"},
			domain.SexMare:     {"body": "360701d11"},
		},
		"OLW TO": {
			domain.SexStallion: {"body": "0cee1abc6", "mane": "2fa1049d7"},
			domain.SexMare:     {"body": "a6ed4dc95", "mane": "9890c3654"},
		},
	},
	"noriker_horse": {
		"RN": {
			domain.SexStallion: {"body": "25f231e53"},
			domain.SexMare:     {"body": "5c51235c8"},
		},
		"TO": {
			domain.SexStallion: {"body": "b4858d809", "mane": "b3acc6951", "tail": "f8f03d4f7"},
			domain.SexMare:     {"body": "236c4be48", "mane": "6ad2b7486", "tail": "6ad2b7483"},
		},
		"TO/TO": {
			domain.SexStallion: {"body": "b4858d809", "mane": "b3acc6951", "tail": "f8f03d4f7"},
			domain.SexMare:     {"body": "236c4be48", "mane": "6ad2b7486", "tail": "6ad2b7483"},
		},
		"sb/sb": {
			domain.SexStallion: {"body": "ec6b68635"},
			domain.SexMare:     {"body": "ec3f4f641"},
		},
	},
	"oldenburg_horse": {
		"TO": {
			domain.SexStallion: {"body": "46869d977", "mane": "ea112e255", "tail": "9d2e56d98"},
			domain.SexMare:     {"body": "a68d8d825", "mane": "e14a80179", "tail": "46869d976"},
		},
		"TO/TO": {
			domain.SexStallion: {"body": "46869d977", "mane": "ea112e255", "tail": "9d2e56d98"},
			domain.SexMare:     {"body": "a68d8d825", "mane": "e14a80179", "tail": "46869d976"},
		},
	},
	"pura_raza_española": {
		"rb/rb": {
			domain.SexStallion: {"body": "f98ca9b17", "tail": "f98ca9b14"},
			domain.SexMare:     {"body": "3241ceab2", "tail": "6984ca066"},
		},
	},
	"quarter_horse": {
		"RN": {
			domain.SexStallion: {"body": "44a433404"},
			domain.SexMare:     {"body": "55b4ff4f3"},
		},
		"OLW": {
			domain.SexStallion: {"body": "e22ca4c15"},
			domain.SexMare:     {"body": "61fdd1e05"},
		},
		"SW1": {
			domain.SexStallion: {"body": "b55401246"},
			domain.SexMare:     {"body": "77225a284"},
		},
		"rb/rb": {
			domain.SexStallion: {"body": "f12098f51", "tail": "f12098f52"},
			domain.SexMare:     {"body": "385ce9101", "tail": "f12098f52"},
		},
		"OLW SW1/SW1": {
			domain.SexStallion: {"body": "8ac298a82"},
			domain.SexMare:     {"body": "4662d5105"},
		},
		"OLW SW1": {
			domain.SexStallion: {"body": "e22ca4c15"},
			domain.SexMare:     {"body": "3ac840219"},
		},
	},
	"shire": {
		"sb/sb": {
			domain.SexStallion: {"body": "56c627016"},
			domain.SexMare:     {"body": "1a300d2b0"},
		},
	},
	"thoroughbred": {
		"RN": {
			domain.SexStallion: {"body": "4c8cc7416"},
			domain.SexMare:     {"body": "87d766949"},
		},
		"OLW": {
			domain.SexStallion: {"body": "ec8b59391", "mane": "ec8b59396"},
			domain.SexMare:     {"body": "c06b3d2c7", "mane": "c06b3d2c5"},
		},
		"rb/rb": {
			domain.SexStallion: {"body": "5bd0eee21", "tail": "5bd0eee28"},
			domain.SexMare:     {"body": "3321ed288", "tail": "a82d6cab8"},
		},
	},
	"trakehner_horse": {
		"RN": {
			domain.SexStallion: {"body": "567692d74"},
			domain.SexMare:     {"body": "4ce789df8"},
		},
		"SW1": {
			domain.SexStallion: {"body": "fb5bbfe85"},
			domain.SexMare:     {"body": "877293bc7"},
		},
		"TO": {
			domain.SexStallion: {"body": "b0b1e6256", "mane": "b0b1e6253"},
			domain.SexMare:     {"body": "b0b1e6256", "mane": "b0b1e6259"},
		},
		"TO/TO": {
			domain.SexStallion: {"body": "97b7ab377", "mane": "165ae46f1", "tail": "165ae46f3"},
			domain.SexMare:     {"body": "774c49666", "mane": "774c49668", "tail": "774c49663"},
		},
		"SW1/SW1": {
			domain.SexStallion: {"body": "01913e555"},
			domain.SexMare:     {"body": "f38df15e8"},
		},
		"SW1 TO": {
			domain.SexStallion: {"body": "dea811554", "mane": "dea811551", "tail": "dea811553"},
			domain.SexMare:     {"body": "96e7b1a27", "mane": "5c242e864", "tail": "5c242e861"},
		},
		"SW1/SW1 TO": {
			domain.SexStallion: {"body": "90c425889", "mane": "ae30207d6", "tail": "ae30207d0"},
			domain.SexMare:     {"body": "73bc49b66", "tail": "73bc49b68"},
		},
		"SW1 TO/TO": {
			domain.SexStallion: {"body": "574a81ce9", "mane": "cc01deab4", "tail": "cc01deab3"},
			domain.SexMare:     {"body": "fe7cbfbd9", "mane": "fe7cbfbd0", "tail": "fe7cbfbd1"},
		},
	},
	"welsh_pony": {
		"RN": {
			domain.SexStallion: {"body": "6aabe9204"},
			domain.SexMare:     {"body": "6aabe9206"},
		},
		"rb/rb": {
			domain.SexStallion: {"body": "fc2512596", "tail": "fc2512599"},
			domain.SexMare:     {"body": "fc2512592", "tail": "fc2512591"},
		},
		"SW1": {
			domain.SexStallion: {"body": "634bf8208"},
			domain.SexMare:     {"body": "634bf8202"},
		},
		"SW1/SW1": {
			domain.SexStallion: {"body": "3494da562"},
			domain.SexMare:     {"body": "d64b582b1"},
		},
		"sb/sb": {
			domain.SexStallion: {"body": "072d7c871"},
			domain.SexMare:     {"body": "072d7c871"},
		},
		"SW1/SW1 sb/sb": {
			domain.SexStallion: {"body": "a547be397"},
			domain.SexMare:     {"body": "29e236050"},
		},
	},
}
