package catalog

// Hospital returns the report catalog run against the hospital records
// database (SQL Server dialect). The order is the archive order.
//
// Tables: Departments, Doctors, Patients, Appointments, Wards, Admissions,
// Prescriptions.
func Hospital() *Catalog {
	return MustNew(
		Static("Patients with at least one appointment", `
SELECT p.patient_id, p.full_name, p.birth_date
FROM Patients p
WHERE EXISTS (
    SELECT 1 FROM Appointments a WHERE a.patient_id = p.patient_id
)
ORDER BY p.full_name`),

		Static("Doctors without appointments", `
SELECT d.doctor_id, d.full_name, d.specialty
FROM Doctors d
WHERE NOT EXISTS (
    SELECT 1 FROM Appointments a WHERE a.doctor_id = d.doctor_id
)
ORDER BY d.full_name`),

		Static("Patients seen by every therapist", `
SELECT p.patient_id, p.full_name
FROM Patients p
WHERE NOT EXISTS (
    SELECT 1 FROM Doctors d
    WHERE d.specialty = N'Therapist'
      AND NOT EXISTS (
          SELECT 1 FROM Appointments a
          WHERE a.patient_id = p.patient_id AND a.doctor_id = d.doctor_id
      )
)
ORDER BY p.full_name`),

		Static("Doctors more experienced than all surgeons", `
SELECT d.doctor_id, d.full_name, d.specialty, d.experience_years
FROM Doctors d
WHERE d.experience_years > ALL (
    SELECT s.experience_years FROM Doctors s
    WHERE s.specialty = N'Surgeon' AND s.experience_years IS NOT NULL
)
ORDER BY d.experience_years DESC`),

		Static("Patients admitted to any surgical ward", `
SELECT DISTINCT p.patient_id, p.full_name
FROM Patients p
JOIN Admissions ad ON ad.patient_id = p.patient_id
WHERE ad.ward_id = ANY (
    SELECT w.ward_id FROM Wards w
    JOIN Departments dep ON dep.department_id = w.department_id
    WHERE dep.name = N'Surgery'
)
ORDER BY p.full_name`),

		Static("Doctors with cancelled appointments", `
SELECT d.doctor_id, d.full_name
FROM Doctors d
WHERE d.doctor_id IN (
    SELECT a.doctor_id FROM Appointments a WHERE a.status = N'cancelled'
)
ORDER BY d.full_name`),

		Static("Hospital contact list", `
SELECT full_name, N'patient' AS role FROM Patients
UNION
SELECT full_name, N'doctor' AS role FROM Doctors
ORDER BY full_name`),

		Static("Outpatients who were also admitted", `
SELECT patient_id FROM Appointments
INTERSECT
SELECT patient_id FROM Admissions`),

		Static("Patients with appointments but no prescriptions", `
SELECT a.patient_id FROM Appointments a
EXCEPT
SELECT a.patient_id FROM Appointments a
JOIN Prescriptions pr ON pr.appointment_id = a.appointment_id`),

		Static("Appointment schedule", `
SELECT a.appointment_id, a.appointment_date, p.full_name AS patient, d.full_name AS doctor, a.status
FROM Appointments a
INNER JOIN Patients p ON p.patient_id = a.patient_id
INNER JOIN Doctors d ON d.doctor_id = a.doctor_id
ORDER BY a.appointment_date, a.appointment_id`),

		Static("Doctor count per department", `
SELECT dep.department_id, dep.name, COUNT(d.doctor_id) AS doctors
FROM Departments dep
LEFT JOIN Doctors d ON d.department_id = dep.department_id
GROUP BY dep.department_id, dep.name
ORDER BY dep.name`),

		Static("Ward occupancy", `
SELECT w.ward_number, w.capacity, COUNT(ad.admission_id) AS current_patients
FROM Admissions ad
RIGHT JOIN Wards w ON w.ward_id = ad.ward_id AND ad.discharged_at IS NULL
GROUP BY w.ward_number, w.capacity
ORDER BY w.ward_number`),

		Static("Patients and admissions reconciliation", `
SELECT p.patient_id, p.full_name, ad.admission_id, ad.admitted_at, ad.discharged_at
FROM Patients p
FULL OUTER JOIN Admissions ad ON ad.patient_id = p.patient_id
ORDER BY p.patient_id, ad.admitted_at`),

		Static("Colleagues within a department", `
SELECT dep.name AS department, d1.full_name AS doctor, d2.full_name AS colleague
FROM Doctors d1
JOIN Doctors d2 ON d2.department_id = d1.department_id AND d2.doctor_id > d1.doctor_id
JOIN Departments dep ON dep.department_id = d1.department_id
ORDER BY dep.name, d1.full_name, d2.full_name`),
	)
}
