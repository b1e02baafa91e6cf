package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/moldtrack_backend/models"
)

func TestBuildTeflonStatusWorkbook(t *testing.T) {
	rows := []*TeflonState{
		{
			MoldId:        "M1",
			MoldName:      "Cover Die",
			Status:        models.TeflonStatusProcessing,
			StatusLabel:   models.TeflonStatusProcessing.LabelJP(),
			SupplierName:  "東京コーティング",
			RequestedDate: "2025/12/01",
		},
		{
			MoldId:      "M2",
			MoldName:    "base plate",
			Status:      models.TeflonStatusCompleted,
			StatusLabel: models.TeflonStatusCompleted.LabelJP(),
		},
	}

	f, err := BuildTeflonStatusWorkbook(rows)
	if err != nil {
		t.Fatalf("BuildTeflonStatusWorkbook: %v", err)
	}
	defer f.Close()

	head, err := f.GetCellValue("Sheet1", "A1")
	if err != nil || head != "MoldId" {
		t.Errorf("A1 = %q err=%v, want MoldId", head, err)
	}
	got, err := f.GetCellValue("Sheet1", "C2")
	if err != nil || got != "テフロン加工中" {
		t.Errorf("C2 = %q err=%v, want テフロン加工中", got, err)
	}
	got, err = f.GetCellValue("Sheet1", "I2")
	if err != nil || got != "東京コーティング" {
		t.Errorf("I2 = %q err=%v", got, err)
	}
	got, err = f.GetCellValue("Sheet1", "A3")
	if err != nil || got != "M2" {
		t.Errorf("A3 = %q err=%v, want M2", got, err)
	}
}
