package uploads

import (
	"github.com/gin-gonic/gin"
)

// Register serves stored avatars from dir.
func Register(r *gin.Engine, dir string) {
	r.Static("/uploads", dir)
}
