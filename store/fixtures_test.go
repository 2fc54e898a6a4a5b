package store_test

import "reflect"

// sameDocument reports whether a and b are the same map, not just equal ones.
func sameDocument(a, b map[string]any) bool {
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}

// userDoc returns a fresh copy of a user document as returned by the shop API.
// Tests may mutate it.
func userDoc() map[string]any {
	return map[string]any{
		"userID":   32217171,
		"userName": "FACEBOOK:100003691408573",
		"externalUserIdentifiers": []any{
			map[string]any{
				"identifier":                "100003691408573",
				"authenticationServiceName": "FACEBOOK",
			},
		},
		"userDisplayName": "Txtrskins Dev",
		"emailVerified":   true,
		"settings": map[string]any{
			"com.bookpac.user.settings.locale":  "de",
			"com.bookpac.user.settings.country": "DE",
		},
		"disabled":           "false",
		"passwordExpiration": "2014-01-25T12:00:00+01:00",
		"money": map[string]any{
			"amount":   0.99,
			"currency": "USD",
		},
		"xzibit": []any{
			map[string]any{
				"foo": map[string]any{"bar": "some"},
			},
		},
		"someFloatValue": "0.605714",
		"isbn":           "978-3-16-148410-0",
		"tags":           "fiction,drama",
	}
}

// basketDoc returns a basket holding one item of each supported type.
func basketDoc() map[string]any {
	return map[string]any{
		"basketID": "b-1",
		"positions": []any{
			map[string]any{
				"itemType": "DOCUMENT",
				"quantity": "1",
				"item":     map[string]any{"documentID": "doc-42", "title": "Dune"},
			},
			map[string]any{
				"itemType": "VOUCHER",
				"quantity": 2,
				"item":     map[string]any{"code": "SUMMER"},
			},
		},
	}
}
