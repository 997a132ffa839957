package persona

import (
	"slices"
	"strings"
	"testing"
)

func TestOther(t *testing.T) {
	if Teacher.Other() != Student || Student.Other() != Teacher {
		t.Error("Other should swap speakers")
	}
	if Speaker("nadie").Valid() {
		t.Error("Unknown speaker should not be valid")
	}
}

func TestFarewellSets(t *testing.T) {
	teacher := ProfesoraGarcia()
	student := Carlos()

	if slices.Contains(teacher.Farewells, "gracias") {
		t.Error("Teacher thanking the student must not end the call")
	}
	if !slices.Contains(student.Farewells, "gracias") {
		t.Error("Student farewell set should include gracias")
	}
	for _, f := range append(teacher.Farewells, student.Farewells...) {
		if f != strings.ToLower(f) {
			t.Errorf("Farewell %q must be lower case", f)
		}
	}
}

func TestTemperatures(t *testing.T) {
	if ProfesoraGarcia().Temperature != 0.4 || Carlos().Temperature != 0.6 {
		t.Error("Unexpected persona temperatures")
	}
}

func TestPick(t *testing.T) {
	if Pick(nil) != "" {
		t.Error("Pick of empty list should be empty")
	}
	for i := 0; i < 20; i++ {
		if q := Pick(Questions); !slices.Contains(Questions, q) {
			t.Fatalf("Pick returned %q outside the bank", q)
		}
	}
	if len(Questions) != 10 || len(Greetings) != 4 {
		t.Errorf("Unexpected bank sizes %d/%d", len(Questions), len(Greetings))
	}
}
