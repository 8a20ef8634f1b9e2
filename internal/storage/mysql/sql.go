package mysql

const shopColumns = `id, uuid, name, country, city, address, latitude, longitude, phone, website,
  business_type, hours, place_id, rating, reviews_count, created_by, created_at, updated_at, scraped_at`

const insertShopSQL = `
INSERT INTO motorcycle_shops
  (uuid, name, country, city, address, latitude, longitude, phone, website,
   business_type, hours, place_id, rating, reviews_count, created_by, scraped_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// uuid and created_by of an existing row are kept.
const upsertShopByPlaceSQL = insertShopSQL + `
ON DUPLICATE KEY UPDATE
  name          = VALUES(name),
  country       = VALUES(country),
  city          = VALUES(city),
  address       = VALUES(address),
  latitude      = VALUES(latitude),
  longitude     = VALUES(longitude),
  phone         = VALUES(phone),
  website       = VALUES(website),
  business_type = VALUES(business_type),
  hours         = VALUES(hours),
  rating        = VALUES(rating),
  reviews_count = VALUES(reviews_count),
  scraped_at    = VALUES(scraped_at),
  updated_at    = CURRENT_TIMESTAMP
`

const updateShopSQL = `
UPDATE motorcycle_shops SET
  name = ?, country = ?, city = ?, address = ?, latitude = ?, longitude = ?,
  phone = ?, website = ?, business_type = ?, hours = ?, place_id = ?,
  rating = ?, reviews_count = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const deleteShopSQL = `DELETE FROM motorcycle_shops WHERE id = ?`

const shopExistsSQL = `SELECT 1 FROM motorcycle_shops WHERE id = ?`

const getShopSQL = `SELECT ` + shopColumns + ` FROM motorcycle_shops WHERE id = ?`

const listCountriesSQL = `
SELECT DISTINCT country FROM motorcycle_shops
WHERE country <> ''
ORDER BY country
`

const listCitiesSQL = `
SELECT DISTINCT city FROM motorcycle_shops
WHERE country = ? AND city <> ''
ORDER BY city
`

// -----------------------------------------------------------------------------
// USERS
// -----------------------------------------------------------------------------

const userColumns = `id, username, email, is_admin, created_at`

const getUserSQL = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

const listUsersSQL = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id`

const setAdminSQL = `UPDATE users SET is_admin = ? WHERE id = ?`

const userExistsSQL = `SELECT 1 FROM users WHERE id = ?`

const passwordHashSQL = `SELECT id, password_hash FROM users WHERE email = ?`

const insertUserSQL = `
INSERT INTO users (id, username, email, password_hash, is_admin)
VALUES (?, ?, ?, ?, ?)
`
