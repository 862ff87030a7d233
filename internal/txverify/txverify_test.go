package txverify

import "testing"

func TestNeverIsNeverTransactional(t *testing.T) {
	v := Never{}
	if v.IsTransactional("save", "Repo") {
		t.Fatal("Never should never report transactional")
	}
}

func TestMethodSetMatchesConfiguredPairs(t *testing.T) {
	v := New("Repo.save", "Repo.delete")
	if !v.IsTransactional("save", "Repo") {
		t.Fatal("Repo.save should be transactional")
	}
	if v.IsTransactional("find", "Repo") {
		t.Fatal("Repo.find was not configured as transactional")
	}
}
