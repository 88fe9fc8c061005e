package normalize

import (
	"clinic-backoffice/internal/models"
)

// AppointmentColumns names the scheduling portal columns
type AppointmentColumns struct {
	Date         string `json:"date" mapstructure:"date"`
	Patient      string `json:"patient" mapstructure:"patient"`
	Specialist   string `json:"specialist" mapstructure:"specialist"`
	Status       string `json:"status" mapstructure:"status"`
	Created      string `json:"created" mapstructure:"created"`
	Services     string `json:"services" mapstructure:"services"`
	Telephone    string `json:"telephone" mapstructure:"telephone"`
	Confirmation string `json:"confirmation" mapstructure:"confirmation"`
}

// DefaultAppointmentColumns returns the headers of the scheduling portal export
func DefaultAppointmentColumns() AppointmentColumns {
	return AppointmentColumns{
		Date:         "Fecha",
		Patient:      "Paciente",
		Specialist:   "Especialista",
		Status:       "Estado",
		Created:      "Creación de la cita",
		Services:     "Servicios",
		Telephone:    "Teléfono",
		Confirmation: "Confirmación de la visita",
	}
}

// Required lists the columns the checks cannot run without
func (c AppointmentColumns) Required() []string {
	return []string{c.Date, c.Patient, c.Specialist, c.Status}
}

// Stored returns the column names as they appear in the store
func (c AppointmentColumns) Stored() AppointmentColumns {
	return AppointmentColumns{
		Date:         SQLColumnName(c.Date),
		Patient:      SQLColumnName(c.Patient),
		Specialist:   SQLColumnName(c.Specialist),
		Status:       SQLColumnName(c.Status),
		Created:      SQLColumnName(c.Created),
		Services:     SQLColumnName(c.Services),
		Telephone:    SQLColumnName(c.Telephone),
		Confirmation: SQLColumnName(c.Confirmation),
	}
}

// TreatmentColumns names the treatment statistics columns
type TreatmentColumns struct {
	Date           string `json:"date" mapstructure:"date"`
	FirstName      string `json:"first_name" mapstructure:"first_name"`
	LastName       string `json:"last_name" mapstructure:"last_name"`
	SecondLastName string `json:"second_last_name" mapstructure:"second_last_name"`
	DoctorID       string `json:"doctor_id" mapstructure:"doctor_id"`
	Description    string `json:"description" mapstructure:"description"`
	Cost           string `json:"cost" mapstructure:"cost"`
	Amount         string `json:"amount" mapstructure:"amount"`
	Referral       string `json:"referral" mapstructure:"referral"`
}

// DefaultTreatmentColumns returns the headers of the treatment statistics export
func DefaultTreatmentColumns() TreatmentColumns {
	return TreatmentColumns{
		Date:           "Fecha realizado",
		FirstName:      "Nombre",
		LastName:       "Apellido 1",
		SecondLastName: "Apellido 2",
		DoctorID:       "Num. Doctor",
		Description:    "Descripción",
		Cost:           "Coste",
		Amount:         "Importe",
		Referral:       "Cómo nos ha conocido",
	}
}

// Required lists the columns the checks cannot run without
func (c TreatmentColumns) Required() []string {
	return []string{c.Date, c.FirstName, c.LastName, c.DoctorID}
}

// Stored returns the column names as they appear in the store
func (c TreatmentColumns) Stored() TreatmentColumns {
	return TreatmentColumns{
		Date:           SQLColumnName(c.Date),
		FirstName:      SQLColumnName(c.FirstName),
		LastName:       SQLColumnName(c.LastName),
		SecondLastName: SQLColumnName(c.SecondLastName),
		DoctorID:       SQLColumnName(c.DoctorID),
		Description:    SQLColumnName(c.Description),
		Cost:           SQLColumnName(c.Cost),
		Amount:         SQLColumnName(c.Amount),
		Referral:       SQLColumnName(c.Referral),
	}
}

// PaymentColumns names the billing export columns
type PaymentColumns struct {
	Date              string `json:"date" mapstructure:"date"`
	PatientCode       string `json:"patient_code" mapstructure:"patient_code"`
	Patient           string `json:"patient" mapstructure:"patient"`
	TreatmentCode     string `json:"treatment_code" mapstructure:"treatment_code"`
	ToothCode         string `json:"tooth_code" mapstructure:"tooth_code"`
	Description       string `json:"description" mapstructure:"description"`
	Realized          string `json:"realized" mapstructure:"realized"`
	Charged           string `json:"charged" mapstructure:"charged"`
	Insurance         string `json:"insurance" mapstructure:"insurance"`
	LabCost           string `json:"lab_cost" mapstructure:"lab_cost"`
	FinancingCost     string `json:"financing_cost" mapstructure:"financing_cost"`
	CommissionPercent string `json:"commission_percent" mapstructure:"commission_percent"`
	CommissionFlag    string `json:"commission_flag" mapstructure:"commission_flag"`
	Referral          string `json:"referral" mapstructure:"referral"`
}

// DefaultPaymentColumns returns the headers of the billing export
func DefaultPaymentColumns() PaymentColumns {
	return PaymentColumns{
		Date:              "Fecha",
		PatientCode:       "Código",
		Patient:           "Paciente",
		TreatmentCode:     "Tratamiento",
		ToothCode:         "Diente",
		Description:       "Descripción",
		Realized:          "Realizado",
		Charged:           "Cobrado",
		Insurance:         "Seguro",
		LabCost:           "Coste lab.",
		FinancingCost:     "Coste finan.",
		CommissionPercent: "Comisión%",
		CommissionFlag:    "Com.",
		Referral:          "Cómo nos ha conocido",
	}
}

// Required lists the columns the merger cannot run without
func (c PaymentColumns) Required() []string {
	return []string{c.Date, c.PatientCode, c.Description, c.Realized, c.Charged}
}

// Stored returns the column names as they appear in the store
func (c PaymentColumns) Stored() PaymentColumns {
	return PaymentColumns{
		Date:              SQLColumnName(c.Date),
		PatientCode:       SQLColumnName(c.PatientCode),
		Patient:           SQLColumnName(c.Patient),
		TreatmentCode:     SQLColumnName(c.TreatmentCode),
		ToothCode:         SQLColumnName(c.ToothCode),
		Description:       SQLColumnName(c.Description),
		Realized:          SQLColumnName(c.Realized),
		Charged:           SQLColumnName(c.Charged),
		Insurance:         SQLColumnName(c.Insurance),
		LabCost:           SQLColumnName(c.LabCost),
		FinancingCost:     SQLColumnName(c.FinancingCost),
		CommissionPercent: SQLColumnName(c.CommissionPercent),
		CommissionFlag:    SQLColumnName(c.CommissionFlag),
		Referral:          SQLColumnName(c.Referral),
	}
}

// PersonalDataColumns names the patient personal data columns
type PersonalDataColumns struct {
	PatientCode string `json:"patient_code" mapstructure:"patient_code"`
	Referral    string `json:"referral" mapstructure:"referral"`
}

// DefaultPersonalDataColumns returns the headers of the personal data export
func DefaultPersonalDataColumns() PersonalDataColumns {
	return PersonalDataColumns{
		PatientCode: "Código",
		Referral:    "Cómo nos ha conocido",
	}
}

// Stored returns the column names as they appear in the store
func (c PersonalDataColumns) Stored() PersonalDataColumns {
	return PersonalDataColumns{
		PatientCode: SQLColumnName(c.PatientCode),
		Referral:    SQLColumnName(c.Referral),
	}
}

// Appointments maps raw rows to appointments, keeping every row
func Appointments(rows []models.Row, cols AppointmentColumns) []models.Appointment {
	out := make([]models.Appointment, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Appointment{
			Date:         row.Get(cols.Date),
			PatientName:  row.Get(cols.Patient),
			Specialist:   row.Get(cols.Specialist),
			Status:       models.AppointmentStatus(row.Get(cols.Status)),
			CreatedDate:  row.Get(cols.Created),
			Services:     row.Get(cols.Services),
			Telephone:    row.Get(cols.Telephone),
			Confirmation: row.Get(cols.Confirmation),
		})
	}
	return out
}

// Treatments maps raw rows to treatment records
func Treatments(rows []models.Row, cols TreatmentColumns) []models.Treatment {
	out := make([]models.Treatment, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Treatment{
			Date:           row.Get(cols.Date),
			FirstName:      row.Get(cols.FirstName),
			LastName:       row.Get(cols.LastName),
			SecondLastName: row.Get(cols.SecondLastName),
			DoctorID:       row.Get(cols.DoctorID),
			Description:    row.Get(cols.Description),
			Cost:           row.Get(cols.Cost),
			Amount:         row.Get(cols.Amount),
			ReferralSource: row.Get(cols.Referral),
		})
	}
	return out
}

// Payments maps raw billing rows to payment lines, parsing every amount
func Payments(rows []models.Row, cols PaymentColumns) []models.RawPayment {
	out := make([]models.RawPayment, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.RawPayment{
			Date:              row.Get(cols.Date),
			PatientCode:       row.Get(cols.PatientCode),
			Patient:           row.Get(cols.Patient),
			TreatmentCode:     row.Get(cols.TreatmentCode),
			ToothCode:         row.Get(cols.ToothCode),
			Description:       row.Get(cols.Description),
			Realized:          ParseNumber(row[cols.Realized]),
			Charged:           ParseNumber(row[cols.Charged]),
			Insurance:         ParseNumber(row[cols.Insurance]),
			LabCost:           ParseNumber(row[cols.LabCost]),
			FinancingCost:     ParseNumber(row[cols.FinancingCost]),
			CommissionPercent: ParseNumber(row[cols.CommissionPercent]),
			CommissionFlag:    row.Get(cols.CommissionFlag),
			ReferralSource:    row.Get(cols.Referral),
		})
	}
	return out
}

// ReferralIndex maps patient code to the "how did you find us" answer.
// Later rows win when a code repeats; rows without a code are ignored.
func ReferralIndex(rows []models.Row, cols PersonalDataColumns) map[string]string {
	index := make(map[string]string, len(rows))
	for _, row := range rows {
		code := row.Get(cols.PatientCode)
		if code == "" {
			continue
		}
		index[code] = row.Get(cols.Referral)
	}
	return index
}

// Columns groups the column layouts of every source
type Columns struct {
	Appointments AppointmentColumns  `json:"appointments" mapstructure:"appointments"`
	Treatments   TreatmentColumns    `json:"treatments" mapstructure:"treatments"`
	Payments     PaymentColumns      `json:"payments" mapstructure:"payments"`
	PersonalData PersonalDataColumns `json:"personal_data" mapstructure:"personal_data"`
}

// DefaultColumns returns the export headers of every source
func DefaultColumns() Columns {
	return Columns{
		Appointments: DefaultAppointmentColumns(),
		Treatments:   DefaultTreatmentColumns(),
		Payments:     DefaultPaymentColumns(),
		PersonalData: DefaultPersonalDataColumns(),
	}
}

// Stored returns the column names of every source as they appear in the store
func (c Columns) Stored() Columns {
	return Columns{
		Appointments: c.Appointments.Stored(),
		Treatments:   c.Treatments.Stored(),
		Payments:     c.Payments.Stored(),
		PersonalData: c.PersonalData.Stored(),
	}
}
