package prompt

// Reference data embedded into the data and records variants. Kept as raw
// text blocks so the model sees exactly what a human reviewer sees.

const claimsReferenceTable = `| Bulan     | Klaim Diajukan | Klaim Disetujui | Klaim Ditolak | Nilai Disetujui (Rp) |
|-----------|----------------|-----------------|---------------|----------------------|
| Januari   | 12450          | 11320           | 1130          | 48.720.000.000       |
| Februari  | 11870          | 10950           | 920           | 45.310.000.000       |
| Maret     | 13210          | 12080           | 1130          | 51.440.000.000       |
| April     | 12990          | 11760           | 1230          | 49.870.000.000       |
| Mei       | 13560          | 12410           | 1150          | 52.950.000.000       |
| Juni      | 14020          | 12890           | 1130          | 54.630.000.000       |`

const recordsSchema = `CREATE TABLE patients (
    patient_id   VARCHAR(16) PRIMARY KEY,
    full_name    VARCHAR(128) NOT NULL,
    birth_date   DATE NOT NULL,
    gender       CHAR(1) NOT NULL,
    bpjs_number  VARCHAR(13)
);

CREATE TABLE encounters (
    encounter_id  VARCHAR(16) PRIMARY KEY,
    patient_id    VARCHAR(16) NOT NULL REFERENCES patients(patient_id),
    facility_code VARCHAR(8) NOT NULL,
    admitted_at   TIMESTAMP NOT NULL,
    discharged_at TIMESTAMP,
    diagnosis_icd VARCHAR(8) NOT NULL
);

CREATE TABLE claims (
    claim_id     VARCHAR(16) PRIMARY KEY,
    encounter_id VARCHAR(16) NOT NULL REFERENCES encounters(encounter_id),
    submitted_at TIMESTAMP NOT NULL,
    status       VARCHAR(16) NOT NULL,
    amount_idr   BIGINT NOT NULL
);`
